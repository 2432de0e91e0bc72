package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/reactcam/internal/gesture"
)

// Reaction is one stretch of time during which a gesture label was shown.
type Reaction struct {
	ID        string
	Label     gesture.Label
	StartedAt time.Time
	EndedAt   *time.Time
	Duration  time.Duration
}

// Active reports whether the reaction is still on screen.
func (r *Reaction) Active() bool {
	return r.EndedAt == nil
}

// LabelStats summarizes the history of one label.
type LabelStats struct {
	Label         gesture.Label
	Count         int
	TotalDuration time.Duration
}

// ReactionRepository records and queries reaction history.
type ReactionRepository struct {
	db *sql.DB
}

// Reactions returns the reaction repository for this store.
func (s *Store) Reactions() *ReactionRepository {
	return &ReactionRepository{db: s.db}
}

// Start inserts an open reaction for label beginning at at.
func (r *ReactionRepository) Start(label gesture.Label, at time.Time) (*Reaction, error) {
	rx := &Reaction{
		ID:        uuid.New().String(),
		Label:     label,
		StartedAt: at.UTC(),
	}

	_, err := r.db.Exec(
		`INSERT INTO reactions (id, label, started_at) VALUES (?, ?, ?)`,
		rx.ID, label.String(), rx.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reaction: %w", err)
	}
	return rx, nil
}

// End closes the reaction with the given id at at and stores its duration.
func (r *ReactionRepository) End(id string, at time.Time) error {
	rx, err := r.GetByID(id)
	if err != nil {
		return err
	}

	ended := at.UTC()
	duration := ended.Sub(rx.StartedAt)
	if duration < 0 {
		duration = 0
	}

	result, err := r.db.Exec(
		`UPDATE reactions SET ended_at = ?, duration_ms = ? WHERE id = ? AND ended_at IS NULL`,
		ended, duration.Milliseconds(), id,
	)
	if err != nil {
		return fmt.Errorf("close reaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CloseOpen ends every reaction still open, e.g. after a crash, and returns
// how many were closed. Their duration is left at zero.
func (r *ReactionRepository) CloseOpen(at time.Time) (int, error) {
	result, err := r.db.Exec(`UPDATE reactions SET ended_at = ? WHERE ended_at IS NULL`, at.UTC())
	if err != nil {
		return 0, fmt.Errorf("close open reactions: %w", err)
	}
	n, err := result.RowsAffected()
	return int(n), err
}

// GetByID retrieves a reaction by its ID.
func (r *ReactionRepository) GetByID(id string) (*Reaction, error) {
	row := r.db.QueryRow(
		`SELECT id, label, started_at, ended_at, duration_ms FROM reactions WHERE id = ?`,
		id,
	)
	rx, err := scanReaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rx, nil
}

// Recent returns up to limit reactions, newest first.
func (r *ReactionRepository) Recent(limit int) ([]*Reaction, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, label, started_at, ended_at, duration_ms
		 FROM reactions ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reactions []*Reaction
	for rows.Next() {
		rx, err := scanReaction(rows)
		if err != nil {
			return nil, err
		}
		reactions = append(reactions, rx)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reactions, nil
}

// Stats returns per-label counts and total on-screen time, most frequent first.
func (r *ReactionRepository) Stats() ([]LabelStats, error) {
	rows, err := r.db.Query(
		`SELECT label, COUNT(*), COALESCE(SUM(duration_ms), 0)
		 FROM reactions GROUP BY label ORDER BY COUNT(*) DESC, label`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []LabelStats
	for rows.Next() {
		var name string
		var count int
		var totalMs int64
		if err := rows.Scan(&name, &count, &totalMs); err != nil {
			return nil, err
		}

		label, err := gesture.ParseLabel(name)
		if err != nil {
			return nil, err
		}
		stats = append(stats, LabelStats{
			Label:         label,
			Count:         count,
			TotalDuration: time.Duration(totalMs) * time.Millisecond,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReaction(s scanner) (*Reaction, error) {
	rx := &Reaction{}
	var name string
	var ended sql.NullTime
	var durationMs int64

	if err := s.Scan(&rx.ID, &name, &rx.StartedAt, &ended, &durationMs); err != nil {
		return nil, err
	}

	label, err := gesture.ParseLabel(name)
	if err != nil {
		return nil, err
	}
	rx.Label = label
	rx.Duration = time.Duration(durationMs) * time.Millisecond
	if ended.Valid {
		t := ended.Time
		rx.EndedAt = &t
	}
	return rx, nil
}
