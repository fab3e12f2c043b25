package extio

// Span is an inclusive range of global pin numbers owned by one element.
type Span struct {
	Start Pin
	End   Pin
}

// Len returns the number of pins in the span.
func (s Span) Len() Pin { return s.End - s.Start + 1 }

// Contains reports whether p lies in [Start, End].
func (s Span) Contains(p Pin) bool { return s.Start <= p && p <= s.End }

// Pin translates a local pin index into a global pin number.
func (s Span) Pin(local Pin) Pin { return s.Start + local }

// Local translates a global pin number into the element-local index.
// p must be contained in the span.
func (s Span) Local(p Pin) Pin { return p - s.Start }

// AddressSpace hands out contiguous blocks of extended pin numbers directly
// above the native range. Blocks are never returned: once allocated, a range
// stays retired for the life of the process even if its element goes away.
type AddressSpace struct {
	first Pin
	next  Pin
}

// NewAddressSpace starts allocation at native, one past the highest native
// pin number.
func NewAddressSpace(native Pin) AddressSpace {
	return AddressSpace{first: native, next: native}
}

// First returns the lowest extended pin number.
func (s *AddressSpace) First() Pin { return s.first }

// Next returns the pin number the next allocation will start at.
func (s *AddressSpace) Next() Pin { return s.next }

// Allocate reserves length consecutive pins.
//
// A zero length, or a block that would run into NoPin, is a configuration
// error and panics: the total of native and extended pins has to fit in Pin.
func (s *AddressSpace) Allocate(length Pin) Span {
	if length == 0 {
		panic("extio: zero-length pin allocation")
	}
	if uint32(s.next)+uint32(length) > uint32(NoPin) {
		panic("extio: pin address space exhausted")
	}
	sp := Span{Start: s.next, End: s.next + length - 1}
	s.next = sp.End + 1
	return sp
}
