package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"careercraft/internal/models"
)

const storyColumns = `id, quote, name, role, company, rating, created_at`

func (db *DB) CreateStory(ctx context.Context, s *models.SuccessStory) error {
	now := time.Now()
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, db.rebind(`INSERT INTO success_stories (
				quote, name, role, company, rating, created_at
			) VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
			s.Quote, s.Name, s.Role, s.Company, nullableInt(s.Rating), now,
		).Scan(&s.ID)
		if err != nil {
			return fmt.Errorf("failed to insert success story: %w", err)
		}
		if s.Image != nil {
			return db.insertArtifact(ctx, tx, models.OwnerStory, s.ID, s.Image)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.CreatedAt = now
	return nil
}

func (db *DB) GetStory(ctx context.Context, id int64) (*models.SuccessStory, error) {
	s, err := db.getStory(ctx, db, id)
	if err != nil {
		return nil, err
	}
	img, err := db.GetArtifact(ctx, models.OwnerStory, id)
	switch {
	case err == nil:
		s.Image = img
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}
	return s, nil
}

func (db *DB) getStory(ctx context.Context, q querier, id int64) (*models.SuccessStory, error) {
	row := q.QueryRowContext(ctx, db.rebind(`SELECT `+storyColumns+` FROM success_stories WHERE id = ?`), id)
	s, err := scanStory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get success story %d: %w", id, err)
	}
	return s, nil
}

func (db *DB) ListStories(ctx context.Context) ([]*models.SuccessStory, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+storyColumns+` FROM success_stories ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list success stories: %w", err)
	}
	defer rows.Close()

	var out []*models.SuccessStory
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan success story: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	images, err := db.ownerArtifacts(ctx, models.OwnerStory)
	if err != nil {
		return nil, err
	}
	for _, s := range out {
		s.Image = images[s.ID]
	}
	return out, nil
}

// UpdateStory overwrites the text fields. An Image without an id replaces
// the current image, which is returned for cleanup.
func (db *DB) UpdateStory(ctx context.Context, s *models.SuccessStory) (*models.Artifact, error) {
	var replaced *models.Artifact
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, db.rebind(`UPDATE success_stories
			SET quote = ?, name = ?, role = ?, company = ?, rating = ? WHERE id = ?`),
			s.Quote, s.Name, s.Role, s.Company, nullableInt(s.Rating), s.ID)
		if err != nil {
			return fmt.Errorf("failed to update success story: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		if s.Image != nil && s.Image.ID == 0 {
			replaced, err = db.replaceArtifact(ctx, tx, models.OwnerStory, s.ID, s.Image)
			return err
		}
		return nil
	})
	return replaced, err
}

func (db *DB) DeleteStory(ctx context.Context, id int64) (*models.SuccessStory, error) {
	var deleted *models.SuccessStory
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		s, err := db.getStory(ctx, tx, id)
		if err != nil {
			return err
		}
		if s.Image, err = db.detachArtifacts(ctx, tx, models.OwnerStory, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, db.rebind(`DELETE FROM success_stories WHERE id = ?`), id); err != nil {
			return fmt.Errorf("failed to delete success story: %w", err)
		}
		deleted = s
		return nil
	})
	return deleted, err
}

func scanStory(row rowScanner) (*models.SuccessStory, error) {
	var (
		s      models.SuccessStory
		rating sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.Quote, &s.Name, &s.Role, &s.Company, &rating, &s.CreatedAt); err != nil {
		return nil, err
	}
	if rating.Valid {
		v := int(rating.Int64)
		s.Rating = &v
	}
	return &s, nil
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return int64(*v)
}
