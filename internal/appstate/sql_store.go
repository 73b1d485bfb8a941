package appstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type appStateRow struct {
	SessionID string    `gorm:"column:session_id;primaryKey"`
	Payload   string    `gorm:"column:payload;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (appStateRow) TableName() string {
	return "app_states"
}

// SQLStore keeps session snapshots in the app_states table.
type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Load(ctx context.Context, sessionID string) (*State, error) {
	var row appStateRow
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load state: %w", err)
	}
	var state State
	if err := json.Unmarshal([]byte(row.Payload), &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	state.ensureCollections()
	return &state, nil
}

func (s *SQLStore) Save(ctx context.Context, state *State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	row := appStateRow{
		SessionID: state.SessionID,
		Payload:   string(payload),
		UpdatedAt: state.UpdatedAt.UTC(),
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, sessionID string) error {
	return s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&appStateRow{}).Error
}
