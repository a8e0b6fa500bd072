package ports

import (
	"context"
	"io"
)

// StoredObject describes bytes written to an ObjectStore.
type StoredObject struct {
	Key         string
	Size        int64
	ContentType string
}

// ObjectStore holds document files and RFQ attachments.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (StoredObject, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// URL returns a link a browser can fetch the object from.
	URL(ctx context.Context, key string) (string, error)
}
