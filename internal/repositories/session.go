package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/personify/internal/models"
	"github.com/desertthunder/personify/internal/shared"
)

const sessionColumns = `id, sequence, state, tracks, critique, is_fallback, expires_at, created_at, updated_at, deleted_at`

// SessionRepository implements [models.Repository] for [models.Session] persistence.
//
// Tracks are stored as a JSON array. Expired sessions are treated as missing by Get.
type SessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create inserts a new session with generated ID and sequence
func (r *SessionRepository) Create(session *models.Session) error {
	sequence, err := NextSequence(r.db, "sessions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	session.SetID(id)
	session.SetSequence(sequence)

	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	tracks, err := json.Marshal(session.Tracks())
	if err != nil {
		return fmt.Errorf("failed to encode tracks: %w", err)
	}

	query := `
		INSERT INTO sessions (id, sequence, state, tracks, critique, is_fallback, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, session.State(), string(tracks), session.Critique(), session.IsFallback(),
		session.ExpiresAt().UTC(), session.CreatedAt().UTC(), session.UpdatedAt().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// Get retrieves a live session by ID. Missing, deleted and expired sessions wrap [shared.ErrNoSession].
func (r *SessionRepository) Get(id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ? AND deleted_at IS NULL`

	session, err := scanSession(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoSession, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	if session.Expired(r.now()) {
		return nil, fmt.Errorf("%w: %s expired", shared.ErrNoSession, id)
	}

	return session, nil
}

// Update writes the session's state, tracks and critique
func (r *SessionRepository) Update(session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	tracks, err := json.Marshal(session.Tracks())
	if err != nil {
		return fmt.Errorf("failed to encode tracks: %w", err)
	}

	now := r.now()
	session.SetUpdatedAt(now)

	query := `
		UPDATE sessions
		SET state = ?, tracks = ?, critique = ?, is_fallback = ?, expires_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, session.State(), string(tracks), session.Critique(), session.IsFallback(),
		session.ExpiresAt().UTC(), now, session.ID())
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return expectRow(result, session.ID())
}

// Delete soft-deletes a session by ID
func (r *SessionRepository) Delete(id string) error {
	query := `UPDATE sessions SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, r.now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return expectRow(result, id)
}

// List retrieves sessions ordered by sequence, excluding soft-deleted ones.
//
// Criteria: "state" (string) matches the OAuth state exactly; "live" (bool) drops expired sessions.
func (r *SessionRepository) List(criteria map[string]any) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE deleted_at IS NULL`
	args := []any{}

	if state, ok := criteria["state"].(string); ok && state != "" {
		query += " AND state = ?"
		args = append(args, state)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	live, _ := criteria["live"].(bool)
	now := r.now()

	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if live && session.Expired(now) {
			continue
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sessions, nil
}

// Expire removes every session that expired at or before before, deleted or not, and returns how many went.
func (r *SessionRepository) Expire(before time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to expire sessions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*models.Session, error) {
	var (
		id         string
		sequence   int
		state      string
		tracksJSON string
		critique   string
		isFallback bool
		expiresAt  time.Time
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &state, &tracksJSON, &critique, &isFallback, &expiresAt, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	var tracks []models.Track
	if err := json.Unmarshal([]byte(tracksJSON), &tracks); err != nil {
		return nil, fmt.Errorf("failed to decode tracks for session %s: %w", id, err)
	}

	session := models.NewSession(sequence, state, 0)
	session.SetID(id)
	session.SetTracks(tracks)
	session.SetCritique(models.CritiqueResult{Text: critique, IsFallback: isFallback})
	session.SetExpiresAt(expiresAt)
	session.SetCreatedAt(createdAt)
	session.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		session.SetDeletedAt(&deletedAt.Time)
	}

	return session, nil
}

func expectRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s not found or already deleted", shared.ErrNoSession, id)
	}
	return nil
}
