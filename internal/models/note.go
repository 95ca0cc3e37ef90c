package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NoteKind string

const (
	NoteKindDocument NoteKind = "document"
	NoteKindLink     NoteKind = "link"
)

var (
	ErrNoteTitleRequired    = errors.New("title is required")
	ErrNoteURLRequired      = errors.New("url is required")
	ErrNoteInvalidKind      = errors.New("kind must be document or link")
	ErrNoteInvalidSection   = errors.New("unknown section")
	ErrNoteStoragePathState = errors.New("documents need a storage path and links must not have one")
)

// Note is a published learning resource. Timestamps are assigned by the
// catalog store clock, not by gorm.
type Note struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Title        string    `json:"title" gorm:"type:varchar(255);not null"`
	Description  string    `json:"description" gorm:"type:text;not null;default:''"`
	Section      Section   `json:"section" gorm:"type:varchar(50);not null;index"`
	Kind         NoteKind  `json:"kind" gorm:"type:varchar(20);not null"`
	URL          string    `json:"url" gorm:"type:text;not null"`
	FileName     *string   `json:"fileName,omitempty" gorm:"type:varchar(255)"`
	StoragePath  *string   `json:"storagePath,omitempty" gorm:"type:text"`
	UploadedBy   string    `json:"uploadedBy" gorm:"type:varchar(128);not null;index"`
	UploaderName string    `json:"uploaderName" gorm:"type:varchar(255);not null;default:''"`
	CreatedAt    time.Time `json:"createdAt" gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"not null;autoUpdateTime:false"`
}

func (n *Note) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

func (Note) TableName() string {
	return "notes"
}

// Validate checks the record shape before it reaches the store.
func (n *Note) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return ErrNoteTitleRequired
	}
	if strings.TrimSpace(n.URL) == "" {
		return ErrNoteURLRequired
	}
	if _, ok := ParseSection(string(n.Section)); !ok {
		return ErrNoteInvalidSection
	}

	hasStoragePath := n.StoragePath != nil && strings.TrimSpace(*n.StoragePath) != ""
	switch n.Kind {
	case NoteKindDocument:
		if !hasStoragePath {
			return ErrNoteStoragePathState
		}
	case NoteKindLink:
		if hasStoragePath {
			return ErrNoteStoragePathState
		}
	default:
		return ErrNoteInvalidKind
	}
	return nil
}
