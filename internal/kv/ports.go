// Package kv defines the key-value storage port the stores persist through.
package kv

import "context"

// Storage is a string key-value namespace, the server-side stand-in for a
// browser's local storage. A missing key is reported with ok == false and a
// nil error.
type Storage interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}
