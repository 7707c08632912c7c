package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/hamzaharrayhan/face-recognition-login/internal/errs"
)

// ImageRepo implements ImageStore on a bytea table. References are the row keys.
type ImageRepo struct{ db *DB }

// NewImageRepo constructs an image repository.
func NewImageRepo(db *DB) *ImageRepo { return &ImageRepo{db: db} }

// Put inserts the image bytes under key.
func (r *ImageRepo) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	const q = `INSERT INTO face_images (key, content_type, data) VALUES ($1, $2, $3)`
	if _, err := r.db.Pool.Exec(ctx, q, key, contentType, data); err != nil {
		return "", err
	}
	return key, nil
}

// Get loads the image bytes for ref.
func (r *ImageRepo) Get(ctx context.Context, ref string) ([]byte, error) {
	const q = `SELECT data FROM face_images WHERE key=$1`
	var data []byte
	if err := r.db.Pool.QueryRow(ctx, q, ref).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}
