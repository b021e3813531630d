package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/recipe-pages/backend/internal/types"
)

// sessionRecord is the persisted form of a Session
type sessionRecord struct {
	State     string    `gorm:"primaryKey;size:64"`
	Keyword   string    `gorm:"not null"`
	Recipes   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

func (sessionRecord) TableName() string {
	return "oauth_sessions"
}

func (r *sessionRecord) toSession() (*Session, error) {
	s := &Session{
		State:     r.State,
		Keyword:   r.Keyword,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
	if r.Recipes != "" {
		if err := json.Unmarshal([]byte(r.Recipes), &s.Recipes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recipes: %w", err)
		}
	}
	return s, nil
}

// SQLStore keeps sessions in a relational database through gorm
type SQLStore struct {
	db     *gorm.DB
	logger *zap.Logger

	stop      chan struct{}
	closeOnce sync.Once
}

// NewSQLStore migrates the session table and returns a store over db. A
// positive cleanupInterval starts a janitor deleting expired rows.
func NewSQLStore(db *gorm.DB, cleanupInterval time.Duration, logger *zap.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.AutoMigrate(&sessionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sessions table: %w", err)
	}

	s := &SQLStore{db: db, logger: logger, stop: make(chan struct{})}
	if cleanupInterval > 0 {
		go runJanitor(cleanupInterval, s.stop, func() {
			if _, err := s.PurgeExpired(context.Background()); err != nil {
				s.logger.Warn("Failed to purge expired sessions", zap.Error(err))
			}
		})
	}
	return s, nil
}

func (s *SQLStore) Save(ctx context.Context, sess *Session) error {
	rec := sessionRecord{
		State:     sess.State,
		Keyword:   sess.Keyword,
		CreatedAt: sess.CreatedAt.UTC(),
		ExpiresAt: sess.ExpiresAt.UTC(),
	}
	if len(sess.Recipes) > 0 {
		data, err := json.Marshal(sess.Recipes)
		if err != nil {
			return fmt.Errorf("failed to marshal recipes: %w", err)
		}
		rec.Recipes = string(data)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// An expired row must not block reuse of its state
		if err := tx.Where("state = ? AND expires_at <= ?", sess.State, time.Now().UTC()).
			Delete(&sessionRecord{}).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&sessionRecord{}).Where("state = ?", sess.State).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateState
		}

		err := tx.Create(&rec).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateState
		}
		return err
	})
}

func (s *SQLStore) Attach(ctx context.Context, state string, recipes []types.Recipe) error {
	data, err := json.Marshal(recipes)
	if err != nil {
		return fmt.Errorf("failed to marshal recipes: %w", err)
	}

	res := s.db.WithContext(ctx).Model(&sessionRecord{}).
		Where("state = ? AND expires_at > ?", state, time.Now().UTC()).
		Update("recipes", string(data))
	if res.Error != nil {
		return fmt.Errorf("failed to attach recipes: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Take(ctx context.Context, state string) (*Session, error) {
	var rec sessionRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("state = ?", state).First(&rec).Error; err != nil {
			return err
		}
		res := tx.Where("state = ?", state).Delete(&sessionRecord{})
		if res.Error != nil {
			return res.Error
		}
		// Lost a race with a concurrent Take
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take session: %w", err)
	}

	sess, err := rec.toSession()
	if err != nil {
		return nil, err
	}
	if sess.Expired(time.Now().UTC()) {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *SQLStore) Delete(ctx context.Context, state string) error {
	if err := s.db.WithContext(ctx).Where("state = ?", state).Delete(&sessionRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired rows and returns how many were removed
func (s *SQLStore) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", time.Now().UTC()).Delete(&sessionRecord{})
	return res.RowsAffected, res.Error
}

// Close stops the janitor. The database handle is owned by the caller.
func (s *SQLStore) Close() error {
	s.closeOnce.Do(func() { close(s.stop) })
	return nil
}
