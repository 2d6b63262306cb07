// Package storage persists generated artifacts in object storage and
// hands back resolvable URLs.
package storage

import "context"

// BlobStore uploads immutable artifact bytes under a caller-chosen name.
type BlobStore interface {
	Upload(ctx context.Context, name, contentType string, data []byte) (string, error)
}
