package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store wraps the GORM DB handle for session-scoped widget state.
type Store struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// ErrNotFound is returned when a session has no stored row for the key.
var ErrNotFound = errors.New("session record not found")

// Open initializes the SQLite-backed store at the provided path.
func Open(path string, silent bool) (*Store, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	if err := db.AutoMigrate(&Submission{}, &Outcome{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	return &Store{gorm: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	sqlDB, err := s.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveSubmission upserts the form context for a session.
func (s *Store) SaveSubmission(sub *Submission) error {
	if sub == nil {
		return errors.New("submission is nil")
	}
	sub.SessionID = strings.TrimSpace(sub.SessionID)
	if sub.SessionID == "" {
		return errors.New("session id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gorm.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "location", "industry", "experience", "gender", "actual_salary", "updated_at"}),
	}).Create(sub).Error
}

// SaveOutcome upserts the stored result payload for a session.
func (s *Store) SaveOutcome(out *Outcome) error {
	if out == nil {
		return errors.New("outcome is nil")
	}
	out.SessionID = strings.TrimSpace(out.SessionID)
	if out.SessionID == "" {
		return errors.New("session id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gorm.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload_json", "source", "updated_at"}),
	}).Create(out).Error
}

// GetSubmission loads the form context for a session.
func (s *Store) GetSubmission(sessionID string) (*Submission, error) {
	var sub Submission
	err := s.gorm.Where("session_id = ?", strings.TrimSpace(sessionID)).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetOutcome loads the stored result for a session.
func (s *Store) GetOutcome(sessionID string) (*Outcome, error) {
	var out Outcome
	err := s.gorm.Where("session_id = ?", strings.TrimSpace(sessionID)).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
