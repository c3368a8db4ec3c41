package store

import "testing"

func TestElementAttributes(t *testing.T) {
	el := NewElement()
	if _, ok := el.Attribute(ThemeAttribute); ok {
		t.Fatalf("new element should have no attributes")
	}
	el.SetAttribute(ThemeAttribute, "dark")
	if v, ok := el.Attribute(ThemeAttribute); !ok || v != "dark" {
		t.Fatalf("got %q ok=%v", v, ok)
	}

	attrs := el.Attributes()
	attrs[ThemeAttribute] = "mutated"
	if v, _ := el.Attribute(ThemeAttribute); v != "dark" {
		t.Fatalf("Attributes must return a copy")
	}

	el.RemoveAttribute(ThemeAttribute)
	if _, ok := el.Attribute(ThemeAttribute); ok {
		t.Fatalf("attribute should be removed")
	}
}
