package store

import (
	"context"
	"errors"
)

// ErrRecordNotFound is returned when no record is stored under a key.
var ErrRecordNotFound = errors.New("store: record not found")

// RecordStorer defines the durable local state operations. A record is an
// opaque serialized value under a well-known key; writes overwrite it whole.
type RecordStorer interface {
	GetRecord(ctx context.Context, key string) ([]byte, error)
	PutRecord(ctx context.Context, key string, value []byte) error
	DeleteRecord(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
