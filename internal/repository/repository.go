// Package repository declares the storage the portal needs.
package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned by LocalStorage.Get when the key is absent.
var ErrNotFound = errors.New("repository: key not found")

// AuthTokenKey is the storage key holding a visitor's (sealed) bearer token.
// Absent means logged out.
const AuthTokenKey = "authToken"

// LocalStorage is a durable string key/value store with one namespace per
// visitor: the server-side stand-in for a browser's localStorage.
type LocalStorage interface {
	Get(ctx context.Context, visitorID, key string) (string, error)
	Set(ctx context.Context, visitorID, key, value string) error
	Remove(ctx context.Context, visitorID, key string) error
}
