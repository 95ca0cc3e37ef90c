package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not-started"
	ProgressInProgress ProgressStatus = "in-progress"
	ProgressCompleted  ProgressStatus = "completed"
)

func ParseProgressStatus(value string) (ProgressStatus, bool) {
	status := ProgressStatus(strings.ToLower(strings.TrimSpace(value)))
	switch status {
	case ProgressNotStarted, ProgressInProgress, ProgressCompleted:
		return status, true
	default:
		return "", false
	}
}

// ProgressRecord holds one student's status for one note. The composite
// primary key is what keeps at most one row per pair.
type ProgressRecord struct {
	UserID      string         `json:"userID" gorm:"type:varchar(128);primaryKey"`
	NoteID      uuid.UUID      `json:"noteID" gorm:"type:uuid;primaryKey;index:idx_progress_note"`
	Status      ProgressStatus `json:"status" gorm:"type:varchar(20);not null;default:'not-started'"`
	StudentName string         `json:"studentName" gorm:"type:varchar(255);not null;default:''"`
	CreatedAt   time.Time      `json:"createdAt" gorm:"not null;autoCreateTime:false"`
	UpdatedAt   time.Time      `json:"updatedAt" gorm:"not null;autoUpdateTime:false"`
}

func (ProgressRecord) TableName() string {
	return "progress_records"
}
