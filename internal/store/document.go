package store

import "sync"

// Document receives the theme projection. In a browser this is the root
// element; here it is anything that can hold attributes.
type Document interface {
	SetAttribute(name, value string)
	RemoveAttribute(name string)
}

// Element is an in-memory Document.
type Element struct {
	mu    sync.RWMutex
	attrs map[string]string
}

func NewElement() *Element {
	return &Element{attrs: make(map[string]string)}
}

func (e *Element) SetAttribute(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attrs[name] = value
}

func (e *Element) RemoveAttribute(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.attrs, name)
}

// Attribute returns the value of name and whether it is set.
func (e *Element) Attribute(name string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.attrs[name]
	return v, ok
}

// Attributes returns a copy of all attributes.
func (e *Element) Attributes() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]string, len(e.attrs))
	for k, v := range e.attrs {
		out[k] = v
	}
	return out
}
