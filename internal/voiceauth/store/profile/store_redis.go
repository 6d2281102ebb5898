package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"voicegate/internal/voiceauth/models"
	id "voicegate/pkg/domain"
	"voicegate/pkg/platform/sentinel"
	"voicegate/pkg/requestcontext"
)

// RedisStore keeps each profile as one msgpack value. Compare-and-set uses
// WATCH/MULTI so a concurrent writer aborts the transaction.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedis(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(profileID id.ProfileID) string {
	return s.prefix + "profile:" + profileID.String()
}

func (s *RedisStore) Get(ctx context.Context, profileID id.ProfileID) (*models.EnrollmentProfile, error) {
	raw, err := s.client.Get(ctx, s.key(profileID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return decodeProfile(raw)
}

func (s *RedisStore) Put(ctx context.Context, p *models.EnrollmentProfile) error {
	key := s.key(p.ID)
	next := p.Clone()
	next.Version = p.Version + 1

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := s.currentVersion(ctx, tx, key)
		if err != nil {
			return err
		}
		switch {
		case p.Version == 0 && current != 0:
			return sentinel.ErrConflict
		case p.Version != 0 && current == 0:
			return sentinel.ErrNotFound
		case current != p.Version:
			return sentinel.ErrConflict
		}
		raw, err := encodeProfile(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return translateTxErr(err, "put profile")
	}
	p.Version = next.Version
	return nil
}

func (s *RedisStore) UpdateAttemptState(ctx context.Context, profileID id.ProfileID, expectedVersion int64, attempts models.AttemptState, status models.ProfileStatus) (int64, error) {
	key := s.key(profileID)
	var newVersion int64

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return sentinel.ErrNotFound
			}
			return err
		}
		p, err := decodeProfile(raw)
		if err != nil {
			return err
		}
		if p.Version != expectedVersion {
			return sentinel.ErrConflict
		}
		p.Attempts = attempts.Clone()
		p.Status = status
		p.UpdatedAt = requestcontext.Now(ctx)
		p.Version++

		encoded, err := encodeProfile(p)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		newVersion = p.Version
		return err
	}, key)
	if err != nil {
		return 0, translateTxErr(err, "update attempt state")
	}
	return newVersion, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) currentVersion(ctx context.Context, tx *redis.Tx, key string) (int64, error) {
	raw, err := tx.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	p, err := decodeProfile(raw)
	if err != nil {
		return 0, err
	}
	return p.Version, nil
}

func translateTxErr(err error, op string) error {
	switch {
	case errors.Is(err, redis.TxFailedErr):
		return sentinel.ErrConflict
	case errors.Is(err, sentinel.ErrConflict), errors.Is(err, sentinel.ErrNotFound):
		return err
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
