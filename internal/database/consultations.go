package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"careercraft/internal/models"
)

const consultationColumns = `id, full_name, email, phone, meeting_date, meeting_time, status, created_at, updated_at`

// CreateConsultation checks the slot and inserts the consultation in one
// transaction. An occupied slot yields ErrSlotTaken whether it is caught by
// the check or by the partial unique index.
func (db *DB) CreateConsultation(ctx context.Context, c *models.Consultation) error {
	date := c.MeetingDate.Format(models.DateLayout)
	now := time.Now()
	if c.Status == "" {
		c.Status = models.StatusPending
	}

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var taken int
		err := tx.QueryRowContext(ctx, db.rebind(
			`SELECT COUNT(*) FROM consultations WHERE meeting_date = ? AND meeting_time = ? AND status <> ?`),
			date, c.MeetingTime, models.StatusCancelled).Scan(&taken)
		if err != nil {
			return fmt.Errorf("failed to check slot in tx: %w", err)
		}
		if taken > 0 {
			return ErrSlotTaken
		}

		err = tx.QueryRowContext(ctx, db.rebind(`INSERT INTO consultations (
				full_name, email, phone, meeting_date, meeting_time, status, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
			c.FullName, c.Email, c.Phone, date, c.MeetingTime, c.Status, now, now,
		).Scan(&c.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrSlotTaken
			}
			return fmt.Errorf("failed to insert consultation in tx: %w", err)
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return err
	}

	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func (db *DB) GetConsultation(ctx context.Context, id int64) (*models.Consultation, error) {
	row := db.QueryRowContext(ctx, db.rebind(`SELECT `+consultationColumns+` FROM consultations WHERE id = ?`), id)
	c, err := scanConsultation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consultation %d: %w", id, err)
	}
	return c, nil
}

// ListConsultations returns all consultations, newest first.
func (db *DB) ListConsultations(ctx context.Context) ([]*models.Consultation, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+consultationColumns+` FROM consultations ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	defer rows.Close()

	var out []*models.Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan consultation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateConsultationStatus moves a consultation from one status to another.
// The update only applies while the stored status still equals from.
func (db *DB) UpdateConsultationStatus(ctx context.Context, id int64, from, to string) (*models.Consultation, error) {
	res, err := db.ExecContext(ctx, db.rebind(
		`UPDATE consultations SET status = ?, updated_at = ? WHERE id = ? AND status = ?`),
		to, time.Now(), id, from)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("failed to update consultation status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		if _, err := db.GetConsultation(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrConcurrentModification
	}

	return db.GetConsultation(ctx, id)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConsultation(row rowScanner) (*models.Consultation, error) {
	var (
		c    models.Consultation
		date string
	)
	if err := row.Scan(&c.ID, &c.FullName, &c.Email, &c.Phone, &date, &c.MeetingTime, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("bad meeting_date %q: %w", date, err)
	}
	c.MeetingDate = d
	return &c, nil
}
