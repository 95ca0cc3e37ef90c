package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/learntrack/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressStore struct {
	DB    *gorm.DB
	Clock *Clock
}

func NewProgressStore(db *gorm.DB, clock *Clock) *ProgressStore {
	return &ProgressStore{DB: db, Clock: clock}
}

// Upsert writes the record for its (user, note) pair in one statement. An
// existing row keeps its created_at; status, name snapshot and updated_at
// are replaced.
func (s *ProgressStore) Upsert(ctx context.Context, record *models.ProgressRecord) (*models.ProgressRecord, error) {
	now := s.Clock.Now()
	row := *record
	row.CreatedAt = now
	row.UpdatedAt = now

	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "note_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "student_name", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, classify("upsert progress", err)
	}

	return s.Get(ctx, record.UserID, record.NoteID)
}

func (s *ProgressStore) Get(ctx context.Context, userID string, noteID uuid.UUID) (*models.ProgressRecord, error) {
	var record models.ProgressRecord
	if err := s.DB.WithContext(ctx).First(&record, "user_id = ? AND note_id = ?", userID, noteID).Error; err != nil {
		return nil, classify("get progress", err)
	}
	return &record, nil
}

func (s *ProgressStore) ListForUser(ctx context.Context, userID string) ([]models.ProgressRecord, error) {
	var records []models.ProgressRecord
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&records).Error; err != nil {
		return nil, classify("list progress for user", err)
	}
	return records, nil
}

func (s *ProgressStore) ListAll(ctx context.Context) ([]models.ProgressRecord, error) {
	var records []models.ProgressRecord
	if err := s.DB.WithContext(ctx).Order("updated_at DESC").Find(&records).Error; err != nil {
		return nil, classify("list progress", err)
	}
	return records, nil
}

func (s *ProgressStore) CountForNote(ctx context.Context, noteID uuid.UUID) (int64, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.ProgressRecord{}).Where("note_id = ?", noteID).Count(&count).Error; err != nil {
		return 0, classify("count progress for note", err)
	}
	return count, nil
}

// DeleteByNote removes every record referencing noteID and returns how many
// went away. Zero is not an error.
func (s *ProgressStore) DeleteByNote(ctx context.Context, noteID uuid.UUID) (int64, error) {
	result := s.DB.WithContext(ctx).Where("note_id = ?", noteID).Delete(&models.ProgressRecord{})
	if result.Error != nil {
		return 0, classify("delete progress for note", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteOrphans removes records whose note is no longer in the catalog.
func (s *ProgressStore) DeleteOrphans(ctx context.Context) (int64, error) {
	db := s.DB.WithContext(ctx)
	noteIDs := db.Model(&models.Note{}).Select("id")
	result := db.
		Where("note_id NOT IN (?)", noteIDs).
		Delete(&models.ProgressRecord{})
	if result.Error != nil {
		return 0, classify("delete orphaned progress", result.Error)
	}
	return result.RowsAffected, nil
}
