package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/learntrack/backend/internal/models"
	"github.com/learntrack/backend/internal/store"
	"github.com/learntrack/backend/pkg/logger"
)

const UnknownStudentName = "Unknown Student"

// ProgressEngine owns every write to the progress store. Records are only
// ever created and changed by SetStatus on behalf of the owning student.
type ProgressEngine struct {
	Catalog  *store.CatalogStore
	Roster   *store.RosterStore
	Progress *store.ProgressStore
}

func NewProgressEngine(catalog *store.CatalogStore, roster *store.RosterStore, progress *store.ProgressStore) *ProgressEngine {
	return &ProgressEngine{Catalog: catalog, Roster: roster, Progress: progress}
}

// SetStatus creates or updates the record for (userID, noteID). The name
// snapshot is re-read from the roster on every write.
func (e *ProgressEngine) SetStatus(ctx context.Context, userID string, noteID uuid.UUID, status models.ProgressStatus) (*models.ProgressRecord, error) {
	parsed, ok := models.ParseProgressStatus(string(status))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	status = parsed

	if _, err := e.Catalog.Get(ctx, noteID); err != nil {
		return nil, err
	}

	studentName, err := e.studentName(ctx, userID)
	if err != nil {
		return nil, err
	}

	record, err := e.Progress.Upsert(ctx, &models.ProgressRecord{
		UserID:      userID,
		NoteID:      noteID,
		Status:      status,
		StudentName: studentName,
	})
	if err != nil {
		logger.ErrorWithUser(userID, "progress_update_failed", err, map[string]interface{}{
			"note_id": noteID.String(),
			"status":  string(status),
		})
		return nil, err
	}

	logger.InfoWithUser(userID, "progress_updated", map[string]interface{}{
		"note_id": noteID.String(),
		"status":  string(status),
	})
	return record, nil
}

func (e *ProgressEngine) studentName(ctx context.Context, userID string) (string, error) {
	profile, err := e.Roster.Get(ctx, userID)
	if err != nil {
		if store.IsNotFound(err) {
			return UnknownStudentName, nil
		}
		return "", err
	}
	if profile.DisplayName == "" {
		return UnknownStudentName, nil
	}
	return profile.DisplayName, nil
}

// CascadeDelete removes every record that references noteID.
func (e *ProgressEngine) CascadeDelete(ctx context.Context, noteID uuid.UUID) (int64, error) {
	removed, err := e.Progress.DeleteByNote(ctx, noteID)
	if err != nil {
		logger.Error("progress_cascade_failed", err, map[string]interface{}{
			"note_id": noteID.String(),
		})
		return 0, err
	}

	logger.Info("progress_cascade_deleted", map[string]interface{}{
		"note_id": noteID.String(),
		"removed": removed,
	})
	return removed, nil
}

func (e *ProgressEngine) GetForUser(ctx context.Context, userID string) ([]models.ProgressRecord, error) {
	return e.Progress.ListForUser(ctx, userID)
}

// SweepOrphans removes records left behind when a status write raced a
// note deletion.
func (e *ProgressEngine) SweepOrphans(ctx context.Context) (int64, error) {
	removed, err := e.Progress.DeleteOrphans(ctx)
	if err != nil {
		logger.Error("progress_orphan_sweep_failed", err, nil)
		return 0, err
	}
	if removed > 0 {
		logger.Warn("progress_orphans_swept", map[string]interface{}{
			"removed": removed,
		})
	}
	return removed, nil
}

// StartSweeper runs SweepOrphans every interval until ctx is cancelled.
func (e *ProgressEngine) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = e.SweepOrphans(ctx)
			}
		}
	}()
}

// StatusIndex maps note ids to the recorded status.
func StatusIndex(records []models.ProgressRecord) map[uuid.UUID]models.ProgressStatus {
	index := make(map[uuid.UUID]models.ProgressStatus, len(records))
	for _, r := range records {
		index[r.NoteID] = r.Status
	}
	return index
}

// StatusFor reads the status for noteID, defaulting to not-started when the
// student never recorded one.
func StatusFor(index map[uuid.UUID]models.ProgressStatus, noteID uuid.UUID) models.ProgressStatus {
	if status, ok := index[noteID]; ok {
		return status
	}
	return models.ProgressNotStarted
}
