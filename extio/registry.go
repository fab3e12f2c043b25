package extio

import (
	"errors"
	"iter"
)

// Handle identifies a registry slot. The zero Handle is never issued.
type Handle uint32

type slot struct {
	el    Element
	span  Span
	live  bool
	begun bool
}

// Registry holds the registered elements in registration order together with
// the address space their pin ranges were carved from.
//
// Elements live in an arena indexed by Handle; order lists the live handles.
// Slots are not recycled, so a stale Handle can never alias a newer element.
type Registry struct {
	space AddressSpace
	slots []slot
	order []Handle
}

// NewRegistry returns an empty registry whose extended range starts at
// native.
func NewRegistry(native Pin) *Registry {
	return &Registry{space: NewAddressSpace(native)}
}

// Native returns the number of native pins, which is also the lowest
// extended pin number.
func (r *Registry) Native() Pin { return r.space.First() }

// NextPin returns the first pin number not yet allocated.
func (r *Registry) NextPin() Pin { return r.space.Next() }

// Len returns the number of registered elements.
func (r *Registry) Len() int { return len(r.order) }

// Register allocates length pins for el and appends it to the sequence.
// The returned Base is meant to be embedded by el.
func (r *Registry) Register(el Element, length Pin) Base {
	if el == nil {
		panic("extio: register nil element")
	}
	span := r.space.Allocate(length)
	r.slots = append(r.slots, slot{el: el, span: span, live: true})
	h := Handle(len(r.slots))
	r.order = append(r.order, h)
	return Base{reg: r, h: h, span: span}
}

// Deregister removes the element from the sequence, wherever it is. Ranges of
// other elements are left alone and the freed range is not handed out again.
// It reports false if h is not registered.
func (r *Registry) Deregister(h Handle) bool {
	s := r.slot(h)
	if s == nil {
		return false
	}
	for i, oh := range r.order {
		if oh == h {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	s.el = nil
	s.live = false
	return true
}

func (r *Registry) slot(h Handle) *slot {
	if h == 0 || int(h) > len(r.slots) {
		return nil
	}
	s := &r.slots[h-1]
	if !s.live {
		return nil
	}
	return s
}

// Element returns the element and span registered under h.
func (r *Registry) Element(h Handle) (Element, Span, bool) {
	s := r.slot(h)
	if s == nil {
		return nil, Span{}, false
	}
	return s.el, s.span, true
}

// First returns the oldest registered element.
func (r *Registry) First() (Handle, bool) {
	if len(r.order) == 0 {
		return 0, false
	}
	return r.order[0], true
}

// Next returns the element registered after h, or false if h is the tail
// or not registered.
func (r *Registry) Next(h Handle) (Handle, bool) {
	for i, oh := range r.order {
		if oh == h {
			if i+1 < len(r.order) {
				return r.order[i+1], true
			}
			return 0, false
		}
	}
	return 0, false
}

// All yields every registered element with its span, in registration order.
func (r *Registry) All() iter.Seq2[Span, Element] {
	return func(yield func(Span, Element) bool) {
		for _, h := range r.order {
			s := &r.slots[h-1]
			if !yield(s.span, s.el) {
				return
			}
		}
	}
}

// FindOwner returns the element whose range contains p and the local index
// of p within it. The scan is linear in the number of elements.
func (r *Registry) FindOwner(p Pin) (Element, Pin, bool) {
	for _, h := range r.order {
		s := &r.slots[h-1]
		if s.span.Contains(p) {
			return s.el, s.span.Local(p), true
		}
	}
	return nil, 0, false
}

// Begin starts the element registered under h unless it was started before.
// A failed Begin is not retried.
func (r *Registry) Begin(h Handle) error {
	s := r.slot(h)
	if s == nil || s.begun {
		return nil
	}
	s.begun = true
	return s.el.Begin()
}

// BeginAll calls Begin once on every element in registration order. Elements
// started by an earlier call are skipped. A failing element does not stop the
// others; all errors are joined.
func (r *Registry) BeginAll() error {
	var errs []error
	for _, h := range r.order {
		if err := r.Begin(h); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// UpdateAll calls Update on every element in registration order and joins
// the errors.
func (r *Registry) UpdateAll() error {
	var errs []error
	for _, el := range r.All() {
		if err := el.Update(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
