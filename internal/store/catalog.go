package store

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/learntrack/backend/internal/models"
	"gorm.io/gorm"
)

type CatalogStore struct {
	DB    *gorm.DB
	Clock *Clock
}

func NewCatalogStore(db *gorm.DB, clock *Clock) *CatalogStore {
	return &CatalogStore{DB: db, Clock: clock}
}

// Create stamps both timestamps from the store clock and returns the new id.
func (s *CatalogStore) Create(ctx context.Context, note *models.Note) (uuid.UUID, error) {
	now := s.Clock.Now()
	note.CreatedAt = now
	note.UpdatedAt = now

	if err := s.DB.WithContext(ctx).Create(note).Error; err != nil {
		return uuid.Nil, classify("create note", err)
	}
	return note.ID, nil
}

func (s *CatalogStore) Get(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	var note models.Note
	if err := s.DB.WithContext(ctx).First(&note, "id = ?", id).Error; err != nil {
		return nil, classify("get note", err)
	}
	return &note, nil
}

// List returns notes newest-first, optionally restricted to one section.
// The order is applied after retrieval so the filtered query needs no
// composite index.
func (s *CatalogStore) List(ctx context.Context, section *models.Section) ([]models.Note, error) {
	query := s.DB.WithContext(ctx).Model(&models.Note{})
	if section != nil {
		query = query.Where("section = ?", *section)
	}

	var notes []models.Note
	if err := query.Find(&notes).Error; err != nil {
		return nil, classify("list notes", err)
	}

	SortNewestFirst(notes)
	return notes, nil
}

// ListIDs returns the identity of every note in the catalog.
func (s *CatalogStore) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := s.DB.WithContext(ctx).Model(&models.Note{}).Pluck("id", &ids).Error; err != nil {
		return nil, classify("list note ids", err)
	}
	return ids, nil
}

func (s *CatalogStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.DB.WithContext(ctx).Delete(&models.Note{}, "id = ?", id)
	if result.Error != nil {
		return classify("delete note", result.Error)
	}
	if result.RowsAffected == 0 {
		return classify("delete note", gorm.ErrRecordNotFound)
	}
	return nil
}

// SortNewestFirst orders by creation time descending, breaking ties by id
// so the order is stable across calls.
func SortNewestFirst(notes []models.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if !notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].CreatedAt.After(notes[j].CreatedAt)
		}
		return notes[i].ID.String() < notes[j].ID.String()
	})
}
