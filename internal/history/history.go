// Package history is the fire-and-forget match-history write-back. The
// simulation never waits on it: callers invoke Record off the tick loop and
// treat any error as log-only.
package history

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Match struct {
	ID           uint      `gorm:"primaryKey"`
	RoomCode     string    `gorm:"index"`
	Player1Score int
	Player2Score int
	Winner       string
	FinishedAt   time.Time
	CreatedAt    time.Time
}

type Recorder interface {
	Record(ctx context.Context, m Match) error
}

// Nop is used when no database is configured.
type Nop struct{}

func (Nop) Record(context.Context, Match) error { return nil }

type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

func Open(dsn string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := db.AutoMigrate(&Match{}); err != nil {
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

func (s *Store) Record(ctx context.Context, m Match) error {
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("record match %s: %w", m.RoomCode, err)
	}
	s.log.Debug("match recorded", zap.String("room", m.RoomCode), zap.String("winner", m.Winner))
	return nil
}
