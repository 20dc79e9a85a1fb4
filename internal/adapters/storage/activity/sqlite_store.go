package activity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"activityboard/internal/adapters/storage"
	domain "activityboard/internal/domain/activity"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new activity store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// List returns every activity in insertion order with rosters in registration order.
// PRE: none
// POST: Participants is never nil
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Activity, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, description, schedule, max_participants FROM activity ORDER BY position, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Activity
	index := make(map[string]int)
	for rows.Next() {
		a := domain.Activity{Participants: []string{}}
		if err := rows.Scan(&a.Name, &a.Description, &a.Schedule, &a.MaxParticipants); err != nil {
			return nil, err
		}
		index[a.Name] = len(results)
		results = append(results, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	regs, err := s.db.QueryContext(ctx, "SELECT activity_name, email FROM registration ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer regs.Close()
	for regs.Next() {
		var name, email string
		if err := regs.Scan(&name, &email); err != nil {
			return nil, err
		}
		if i, ok := index[name]; ok {
			results[i].Participants = append(results[i].Participants, email)
		}
	}
	return results, regs.Err()
}

// GetByName retrieves one activity with its roster.
// PRE: name is non-empty
// POST: Returns domain.ErrNotFound when no such activity exists
func (s *SQLiteStore) GetByName(ctx context.Context, name string) (domain.Activity, error) {
	a := domain.Activity{Participants: []string{}}
	err := s.db.QueryRowContext(ctx,
		"SELECT name, description, schedule, max_participants FROM activity WHERE name = ?", name,
	).Scan(&a.Name, &a.Description, &a.Schedule, &a.MaxParticipants)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Activity{}, fmt.Errorf("activity %q: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Activity{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT email FROM registration WHERE activity_name = ? ORDER BY rowid", name)
	if err != nil {
		return domain.Activity{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return domain.Activity{}, err
		}
		a.Participants = append(a.Participants, email)
	}
	return a, rows.Err()
}

// Save upserts the activity and replaces its roster.
// An existing activity keeps its position; a new one is appended.
// PRE: entity has been validated
// POST: activity and roster persisted atomically
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Activity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO activity (name, description, schedule, max_participants, position)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(position) + 1, 0) FROM activity))
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			schedule = excluded.schedule,
			max_participants = excluded.max_participants`,
		entity.Name, entity.Description, entity.Schedule, entity.MaxParticipants,
	)
	if err != nil {
		return fmt.Errorf("save activity: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM registration WHERE activity_name = ?", entity.Name); err != nil {
		return fmt.Errorf("reset roster: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, email := range entity.Participants {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO registration (id, activity_name, email, created_at) VALUES (?, ?, ?, ?)",
			uuid.New().String(), entity.Name, email, now,
		)
		if err != nil {
			return fmt.Errorf("save roster entry: %w", err)
		}
	}

	return tx.Commit()
}

// Count returns the number of activities.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM activity").Scan(&n)
	return n, err
}

// AddParticipant appends reg to the activity roster.
// The capacity check and the insert are one statement so concurrent signups cannot overfill.
// PRE: reg.Email has been validated
// POST: Returns ErrNotFound, ErrAlreadySignedUp or ErrActivityFull on refusal
func (s *SQLiteStore) AddParticipant(ctx context.Context, reg domain.Registration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var capacity int
	err = tx.QueryRowContext(ctx, "SELECT max_participants FROM activity WHERE name = ?", reg.ActivityName).Scan(&capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("activity %q: %w", reg.ActivityName, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}

	var existing int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM registration WHERE activity_name = ? AND email = ?",
		reg.ActivityName, reg.Email,
	).Scan(&existing)
	if err != nil {
		return err
	}
	if existing > 0 {
		return domain.ErrAlreadySignedUp
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO registration (id, activity_name, email, created_at)
		SELECT ?, ?, ?, ?
		WHERE (SELECT COUNT(*) FROM registration WHERE activity_name = ?) < ?`,
		reg.ID, reg.ActivityName, reg.Email, reg.CreatedAt.UTC().Format(time.RFC3339Nano),
		reg.ActivityName, capacity,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadySignedUp
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrActivityFull
	}

	return tx.Commit()
}

// RemoveParticipant deletes email from the activity roster.
// PRE: activityName and email are non-empty
// POST: Returns ErrNotFound or ErrNotRegistered when nothing was removed
func (s *SQLiteStore) RemoveParticipant(ctx context.Context, activityName, email string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM activity WHERE name = ?", activityName).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("activity %q: %w", activityName, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM registration WHERE activity_name = ? AND email = ?", activityName, email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotRegistered
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
