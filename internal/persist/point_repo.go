package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/farmdemo/server/internal/data"
)

type PointRepo struct {
	db *DB
}

func NewPointRepo(db *DB) *PointRepo {
	return &PointRepo{db: db}
}

// Save inserts a created point and returns its database id.
func (r *PointRepo) Save(ctx context.Context, p data.Point) (int, error) {
	if p.Meta == nil {
		p.Meta = map[string]string{}
	}
	meta, err := json.Marshal(p.Meta)
	if err != nil {
		return 0, fmt.Errorf("encode point meta: %w", err)
	}
	var id int
	err = r.db.Pool.QueryRow(ctx,
		`INSERT INTO points (name, pointer_type, x, y, z, radius, meta)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		p.Name, p.PointerType, p.X, p.Y, p.Z, p.Radius, meta,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert point: %w", err)
	}
	return id, nil
}

// SoilHeightPoints returns every stored point measured at soil level.
func (r *PointRepo) SoilHeightPoints(ctx context.Context) ([]data.Point, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, name, pointer_type, x, y, z, radius, meta
		 FROM points WHERE meta->>'at_soil_level' = 'true' ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []data.Point
	for rows.Next() {
		var p data.Point
		var meta []byte
		if err := rows.Scan(&p.ID, &p.Name, &p.PointerType, &p.X, &p.Y, &p.Z, &p.Radius, &meta); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(meta, &p.Meta); err != nil {
			return nil, fmt.Errorf("decode point %d meta: %w", p.ID, err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
