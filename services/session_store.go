package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mps_intranet_go/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionStore is the durable key-value storage for session fingerprints.
// Load returns nil without error when the key is absent.
// Delete reports whether this call removed the key.
type SessionStore interface {
	Load(ctx context.Context, key string) (*models.SessionFingerprint, error)
	Save(ctx context.Context, key string, fp *models.SessionFingerprint) error
	Delete(ctx context.Context, key string) (bool, error)
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// DBSessionStore keeps fingerprints in the session_records table
type DBSessionStore struct {
	db *gorm.DB
}

// NewDBSessionStore migrates the session table and returns the store
func NewDBSessionStore(ctx context.Context, db *gorm.DB) (*DBSessionStore, error) {
	if err := db.WithContext(ctx).AutoMigrate(&models.SessionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate session records: %w", err)
	}
	return &DBSessionStore{db: db}, nil
}

func (s *DBSessionStore) Load(ctx context.Context, key string) (*models.SessionFingerprint, error) {
	var rec models.SessionRecord
	err := s.db.WithContext(ctx).Where("session_key = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return decodeFingerprint([]byte(rec.Data))
}

func (s *DBSessionStore) Save(ctx context.Context, key string, fp *models.SessionFingerprint) error {
	data, err := json.Marshal(fp)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	rec := models.SessionRecord{Key: key, Data: string(data), UpdatedAt: time.Now()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *DBSessionStore) Delete(ctx context.Context, key string) (bool, error) {
	result := s.db.WithContext(ctx).Where("session_key = ?", key).Delete(&models.SessionRecord{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete session: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *DBSessionStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).Model(&models.SessionRecord{}).
		Where("session_key LIKE ?", prefix+"%").
		Pluck("session_key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return keys, nil
}

// RedisSessionStore keeps fingerprints as JSON strings in redis.
// Entries carry a TTL so abandoned sessions disappear even without a sweep.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore connects to redis and verifies the connection
func NewRedisSessionStore(ctx context.Context, addr, password string, database int, ttl time.Duration) (*RedisSessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       database,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisSessionStore{client: client, ttl: ttl}, nil
}

func (s *RedisSessionStore) Load(ctx context.Context, key string) (*models.SessionFingerprint, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return decodeFingerprint(data)
}

func (s *RedisSessionStore) Save(ctx context.Context, key string, fp *models.SessionFingerprint) error {
	data, err := json.Marshal(fp)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	return n > 0, nil
}

func (s *RedisSessionStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return keys, nil
}

// Close closes the redis connection
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

func decodeFingerprint(data []byte) (*models.SessionFingerprint, error) {
	var fp models.SessionFingerprint
	if err := json.Unmarshal(data, &fp); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &fp, nil
}
