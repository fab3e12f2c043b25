//go:build !rp2040 && !rp2350

package main

import (
	"bufio"
	"context"
	"time"

	"github.com/tarm/serial"

	"extio-go/services/pins"
)

// serveSerial answers console lines arriving on a host serial port, the same
// protocol the firmware serves on UART0.
func serveSerial(ctx context.Context, log logger, name string, baud int, c *pins.Client) error {
	port, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		ReadTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_ = port.Close()
	}()

	log.Info().Str("port", name).Int("baud", baud).Log("console open")
	sc := bufio.NewScanner(port)
	for {
		for sc.Scan() {
			line := sc.Text()
			if line == "" {
				continue
			}
			resp := c.Exec(ctx, line)
			log.Debug().Str("cmd", line).Str("resp", resp).Log("console")
			if _, err := port.Write([]byte(resp + "\r\n")); err != nil {
				return err
			}
		}
		if ctx.Err() != nil {
			return nil
		}
		if err := sc.Err(); err != nil {
			return err
		}
		// A read timeout ends the scan with no error; start a new one.
		sc = bufio.NewScanner(port)
	}
}
