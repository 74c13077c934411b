package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"careercraft/internal/models"
)

const courseColumns = `id, icon, title, description, full_description, duration, level, features, created_at`

func (db *DB) CreateCourse(ctx context.Context, c *models.Course) error {
	now := time.Now()
	err := db.QueryRowContext(ctx, db.rebind(`INSERT INTO courses (
			icon, title, description, full_description, duration, level, features, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		c.Icon, c.Title, c.Description, c.FullDescription, c.Duration, c.Level, joinFeatures(c.Features), now,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to insert course: %w", err)
	}
	c.CreatedAt = now
	return nil
}

func (db *DB) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	row := db.QueryRowContext(ctx, db.rebind(`SELECT `+courseColumns+` FROM courses WHERE id = ?`), id)
	c, err := scanCourse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course %d: %w", id, err)
	}
	return c, nil
}

func (db *DB) ListCourses(ctx context.Context) ([]*models.Course, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var out []*models.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (db *DB) UpdateCourse(ctx context.Context, c *models.Course) error {
	res, err := db.ExecContext(ctx, db.rebind(`UPDATE courses SET
			icon = ?, title = ?, description = ?, full_description = ?, duration = ?, level = ?, features = ?
		WHERE id = ?`),
		c.Icon, c.Title, c.Description, c.FullDescription, c.Duration, c.Level, joinFeatures(c.Features), c.ID)
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	return expectOne(res)
}

func (db *DB) DeleteCourse(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, db.rebind(`DELETE FROM courses WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return expectOne(res)
}

func (db *DB) CreateFAQ(ctx context.Context, f *models.FAQ) error {
	now := time.Now()
	err := db.QueryRowContext(ctx, db.rebind(`INSERT INTO faqs (question, answer, created_at) VALUES (?, ?, ?) RETURNING id`),
		f.Question, f.Answer, now).Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("failed to insert faq: %w", err)
	}
	f.CreatedAt = now
	return nil
}

func (db *DB) GetFAQ(ctx context.Context, id int64) (*models.FAQ, error) {
	var f models.FAQ
	err := db.QueryRowContext(ctx, db.rebind(`SELECT id, question, answer, created_at FROM faqs WHERE id = ?`), id).
		Scan(&f.ID, &f.Question, &f.Answer, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get faq %d: %w", id, err)
	}
	return &f, nil
}

func (db *DB) ListFAQs(ctx context.Context) ([]*models.FAQ, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, question, answer, created_at FROM faqs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list faqs: %w", err)
	}
	defer rows.Close()

	var out []*models.FAQ
	for rows.Next() {
		var f models.FAQ
		if err := rows.Scan(&f.ID, &f.Question, &f.Answer, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan faq: %w", err)
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

func (db *DB) UpdateFAQ(ctx context.Context, f *models.FAQ) error {
	res, err := db.ExecContext(ctx, db.rebind(`UPDATE faqs SET question = ?, answer = ? WHERE id = ?`), f.Question, f.Answer, f.ID)
	if err != nil {
		return fmt.Errorf("failed to update faq: %w", err)
	}
	return expectOne(res)
}

func (db *DB) DeleteFAQ(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, db.rebind(`DELETE FROM faqs WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete faq: %w", err)
	}
	return expectOne(res)
}

// GetSiteStats returns the stored statistics without defaults applied.
func (db *DB) GetSiteStats(ctx context.Context) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT stat_key, stat_value FROM site_stats`)
	if err != nil {
		return nil, fmt.Errorf("failed to get site stats: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan site stat: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// SetSiteStats upserts the known keys and ignores the rest.
func (db *DB) SetSiteStats(ctx context.Context, values map[string]string) error {
	now := time.Now()
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for k, v := range values {
			if !models.IsSiteStatKey(k) {
				continue
			}
			_, err := tx.ExecContext(ctx, db.rebind(`INSERT INTO site_stats (stat_key, stat_value, updated_at) VALUES (?, ?, ?)
				ON CONFLICT (stat_key) DO UPDATE SET stat_value = excluded.stat_value, updated_at = excluded.updated_at`),
				k, v, now)
			if err != nil {
				return fmt.Errorf("failed to save site stat %s: %w", k, err)
			}
		}
		return nil
	})
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func joinFeatures(features []string) string {
	clean := make([]string, 0, len(features))
	for _, f := range features {
		if f = strings.TrimSpace(f); f != "" {
			clean = append(clean, f)
		}
	}
	return strings.Join(clean, ",")
}

func scanCourse(row rowScanner) (*models.Course, error) {
	var (
		c        models.Course
		features string
	)
	if err := row.Scan(&c.ID, &c.Icon, &c.Title, &c.Description, &c.FullDescription, &c.Duration, &c.Level, &features, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Features = []string{}
	if features != "" {
		c.Features = strings.Split(features, ",")
	}
	return &c, nil
}
