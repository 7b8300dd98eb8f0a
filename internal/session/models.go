package session

import "time"

// Submission is the persisted form context for one browsing session (the
// ftgForm payload). Overwritten on every submission.
type Submission struct {
	ID           uint   `gorm:"primaryKey"`
	SessionID    string `gorm:"size:64;uniqueIndex"`
	Role         string `gorm:"size:128"`
	Location     string `gorm:"size:128"`
	Industry     string `gorm:"size:128"`
	Experience   string `gorm:"size:16"`
	Gender       string `gorm:"size:32"`
	ActualSalary *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Outcome is the persisted simulation result for one browsing session (the
// ftgResults payload), stored verbatim as JSON. Overwritten on every
// submission.
type Outcome struct {
	ID          uint   `gorm:"primaryKey"`
	SessionID   string `gorm:"size:64;uniqueIndex"`
	PayloadJSON string `gorm:"type:text"`
	Source      string `gorm:"size:32"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
