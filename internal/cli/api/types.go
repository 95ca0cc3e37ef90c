package api

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/learntrack/backend/internal/models"
)

// Notes, profiles and progress records travel in their stored shape.
type (
	Note           = models.Note
	Profile        = models.UserProfile
	ProgressRecord = models.ProgressRecord
	SectionInfo    = models.SectionInfo
)

// NoteWithStatus is a catalog entry joined with the caller's status.
type NoteWithStatus struct {
	models.Note
	Status models.ProgressStatus `json:"status"`
}

type SectionSummary struct {
	Section    models.Section `json:"section"`
	Name       string         `json:"name"`
	TotalNotes int            `json:"totalNotes"`
	Completed  int            `json:"completed"`
	InProgress int            `json:"inProgress"`
	Students   int            `json:"students"`
}

type StudentSummary struct {
	UserID         string          `json:"userID"`
	DisplayName    string          `json:"displayName"`
	Email          string          `json:"email"`
	Section        *models.Section `json:"section"`
	TotalNotes     int             `json:"totalNotes"`
	Completed      int             `json:"completed"`
	InProgress     int             `json:"inProgress"`
	NotStarted     int             `json:"notStarted"`
	CompletionRate int             `json:"completionRate"`
}

// ProgressRow is one line of the admin roster view.
type ProgressRow struct {
	UserID      string                `json:"userID"`
	NoteID      string                `json:"noteID"`
	Status      models.ProgressStatus `json:"status"`
	UpdatedAt   time.Time             `json:"updatedAt"`
	StudentName string                `json:"studentName"`
	Email       string                `json:"email"`
	NoteTitle   string                `json:"noteTitle"`
	Section     string                `json:"section"`
	UserMissing bool                  `json:"userMissing"`
	NoteMissing bool                  `json:"noteMissing"`
}

type DeleteResult struct {
	NoteID          string `json:"noteID"`
	ProgressRemoved int64  `json:"progressRemoved"`
	StorageReleased bool   `json:"storageReleased"`
}

type URLResponse struct {
	URL string `json:"url"`
}

type SweepResult struct {
	Removed int64 `json:"removed"`
}

var ErrTokenNoExpiry = errors.New("token carries no expiry")

// TokenExpiry reads the exp claim of a session token without verifying the
// signature. The server still verifies every request.
func TokenExpiry(token string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrTokenNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}
