package repository

import (
	"context"
	"time"

	"github.com/hamzaharrayhan/face-recognition-login/internal/model"
)

// ImageStore persists raw face images.
type ImageStore interface {
	// Put stores data under key and returns the reference kept on the identity.
	Put(ctx context.Context, key string, data []byte, contentType string) (ref string, err error)
	// Get returns the bytes behind a reference produced by Put.
	Get(ctx context.Context, ref string) ([]byte, error)
}

// EncodingCache keeps reference encodings keyed by image reference.
type EncodingCache interface {
	// Get returns the cached encoding and whether it was present.
	Get(ctx context.Context, ref string) (model.FaceEncoding, bool, error)
	// Set stores the encoding for ref with the given ttl.
	Set(ctx context.Context, ref string, enc model.FaceEncoding, ttl time.Duration) error
}
