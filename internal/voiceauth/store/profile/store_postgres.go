package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"voicegate/internal/voiceauth/models"
	id "voicegate/pkg/domain"
	"voicegate/pkg/platform/sentinel"
	"voicegate/pkg/requestcontext"
)

// PostgresStore persists profiles in PostgreSQL. Lifecycle fields are columns;
// the enrollment material is a msgpack bytea. This store is pure I/O: lock and
// lifecycle rules belong in the services.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectProfile = `
	SELECT id, status, version, enrollment, consecutive_failures, lockouts, locked_until, created_at, updated_at
	FROM voice_profiles
	WHERE id = $1
`

func (s *PostgresStore) Get(ctx context.Context, profileID id.ProfileID) (*models.EnrollmentProfile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx, selectProfile, uuid.UUID(profileID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Put(ctx context.Context, p *models.EnrollmentProfile) error {
	enrollment, err := encodeEnrollment(p)
	if err != nil {
		return err
	}

	if p.Version == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO voice_profiles (id, status, version, enrollment, consecutive_failures, lockouts, locked_until, created_at, updated_at)
			VALUES ($1, $2, 1, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO NOTHING
		`,
			uuid.UUID(p.ID), string(p.Status), enrollment,
			p.Attempts.ConsecutiveFailures, p.Attempts.Lockouts, p.Attempts.LockedUntil,
			p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert profile rows affected: %w", err)
		}
		if n == 0 {
			return sentinel.ErrConflict
		}
		p.Version = 1
		return nil
	}

	var version int64
	err = s.db.QueryRowContext(ctx, `
		UPDATE voice_profiles SET
			status = $3,
			enrollment = $4,
			consecutive_failures = $5,
			lockouts = $6,
			locked_until = $7,
			updated_at = $8,
			version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version
	`,
		uuid.UUID(p.ID), p.Version, string(p.Status), enrollment,
		p.Attempts.ConsecutiveFailures, p.Attempts.Lockouts, p.Attempts.LockedUntil,
		p.UpdatedAt,
	).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.missOrConflict(ctx, p.ID)
		}
		return fmt.Errorf("update profile: %w", err)
	}
	p.Version = version
	return nil
}

func (s *PostgresStore) UpdateAttemptState(ctx context.Context, profileID id.ProfileID, expectedVersion int64, attempts models.AttemptState, status models.ProfileStatus) (int64, error) {
	var version int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE voice_profiles SET
			status = $3,
			consecutive_failures = $4,
			lockouts = $5,
			locked_until = $6,
			updated_at = $7,
			version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version
	`,
		uuid.UUID(profileID), expectedVersion, string(status),
		attempts.ConsecutiveFailures, attempts.Lockouts, attempts.LockedUntil,
		requestcontext.Now(ctx),
	).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, s.missOrConflict(ctx, profileID)
		}
		return 0, fmt.Errorf("update attempt state: %w", err)
	}
	return version, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// missOrConflict distinguishes a vanished row from a version mismatch after a
// conditional update matched nothing.
func (s *PostgresStore) missOrConflict(ctx context.Context, profileID id.ProfileID) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM voice_profiles WHERE id = $1)`, uuid.UUID(profileID)).Scan(&exists); err != nil {
		return fmt.Errorf("check profile: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

func scanProfile(row *sql.Row) (*models.EnrollmentProfile, error) {
	var (
		rawID       uuid.UUID
		status      string
		p           models.EnrollmentProfile
		enrollment  []byte
		lockedUntil sql.NullTime
	)
	if err := row.Scan(
		&rawID, &status, &p.Version, &enrollment,
		&p.Attempts.ConsecutiveFailures, &p.Attempts.Lockouts, &lockedUntil,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.ID = id.ProfileID(rawID)
	p.Status = models.ProfileStatus(status)
	if lockedUntil.Valid {
		t := lockedUntil.Time
		p.Attempts.LockedUntil = &t
	}
	if err := decodeEnrollment(&p, enrollment); err != nil {
		return nil, err
	}
	return &p, nil
}
