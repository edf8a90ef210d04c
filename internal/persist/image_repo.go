package persist

import (
	"context"
	"time"
)

// ImageRow is a stored photo record.
type ImageRow struct {
	URL       string
	Name      string
	X, Y, Z   float64
	CreatedAt time.Time
}

type ImageRepo struct {
	db *DB
}

func NewImageRepo(db *DB) *ImageRepo {
	return &ImageRepo{db: db}
}

func (r *ImageRepo) Save(ctx context.Context, img ImageRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO images (attachment_url, name, x, y, z, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		img.URL, img.Name, img.X, img.Y, img.Z, img.CreatedAt,
	)
	return err
}
