package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/learntrack/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RosterStore struct {
	DB    *gorm.DB
	Clock *Clock
}

func NewRosterStore(db *gorm.DB, clock *Clock) *RosterStore {
	return &RosterStore{DB: db, Clock: clock}
}

// ProfileUpdate carries the admin-editable fields. Nil means unchanged;
// ClearSection sets the section back to null.
type ProfileUpdate struct {
	DisplayName  *string
	AvatarURL    *string
	Role         *models.UserRole
	Section      *models.Section
	ClearSection bool
}

func (u ProfileUpdate) Empty() bool {
	return u.DisplayName == nil && u.AvatarURL == nil && u.Role == nil && u.Section == nil && !u.ClearSection
}

// Upsert merges profile into the stored record. Only the non-zero fields of
// profile are written to an existing row, so a sign-in touch never resets
// the role or section. A new row gets role=student and no section unless
// profile says otherwise.
func (s *RosterStore) Upsert(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	if strings.TrimSpace(profile.ID) == "" {
		return nil, errors.New("profile id is required")
	}

	var stored models.UserProfile
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.Clock.Now()

		findErr := tx.First(&stored, "id = ?", profile.ID).Error
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			created := *profile
			if created.Role == "" {
				created.Role = models.UserRoleStudent
			}
			created.CreatedAt = now
			created.UpdatedAt = now
			if created.LastLoginAt.IsZero() {
				created.LastLoginAt = now
			}
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&created)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 1 {
				stored = created
				return nil
			}
			// A concurrent sign-in inserted the row first; merge into it.
		} else if findErr != nil {
			return findErr
		}

		updates := mergeFields(profile)
		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = now
		if err := tx.Model(&models.UserProfile{}).Where("id = ?", profile.ID).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&stored, "id = ?", profile.ID).Error
	})
	if err != nil {
		return nil, classify("upsert profile", err)
	}
	return &stored, nil
}

func mergeFields(profile *models.UserProfile) map[string]interface{} {
	updates := map[string]interface{}{}
	if profile.Email != "" {
		updates["email"] = profile.Email
	}
	if profile.DisplayName != "" {
		updates["display_name"] = profile.DisplayName
	}
	if profile.AvatarURL != nil {
		updates["avatar_url"] = *profile.AvatarURL
	}
	if profile.Role != "" {
		updates["role"] = profile.Role
	}
	if profile.Section != nil {
		updates["section"] = *profile.Section
	}
	if !profile.LastLoginAt.IsZero() {
		updates["last_login_at"] = profile.LastLoginAt
	}
	return updates
}

// Touch records a sign-in without touching any other field.
func (s *RosterStore) Touch(ctx context.Context, id string, at time.Time) error {
	result := s.DB.WithContext(ctx).Model(&models.UserProfile{}).
		Where("id = ?", id).
		Update("last_login_at", at.UTC())
	if result.Error != nil {
		return classify("touch profile", result.Error)
	}
	if result.RowsAffected == 0 {
		return classify("touch profile", gorm.ErrRecordNotFound)
	}
	return nil
}

func (s *RosterStore) Get(ctx context.Context, id string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.DB.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, classify("get profile", err)
	}
	return &profile, nil
}

// List returns profiles ordered by display name, optionally only those
// assigned to section.
func (s *RosterStore) List(ctx context.Context, section *models.Section) ([]models.UserProfile, error) {
	query := s.DB.WithContext(ctx).Model(&models.UserProfile{})
	if section != nil {
		query = query.Where("section = ?", *section)
	}

	var profiles []models.UserProfile
	if err := query.Order("display_name ASC, id ASC").Find(&profiles).Error; err != nil {
		return nil, classify("list profiles", err)
	}
	return profiles, nil
}

func (s *RosterStore) Update(ctx context.Context, id string, update ProfileUpdate) (*models.UserProfile, error) {
	updates := map[string]interface{}{}
	if update.DisplayName != nil {
		updates["display_name"] = strings.TrimSpace(*update.DisplayName)
	}
	if update.AvatarURL != nil {
		if trimmed := strings.TrimSpace(*update.AvatarURL); trimmed == "" {
			updates["avatar_url"] = nil
		} else {
			updates["avatar_url"] = trimmed
		}
	}
	if update.Role != nil {
		updates["role"] = *update.Role
	}
	if update.ClearSection {
		updates["section"] = nil
	} else if update.Section != nil {
		updates["section"] = *update.Section
	}
	if len(updates) == 0 {
		return s.Get(ctx, id)
	}
	updates["updated_at"] = s.Clock.Now()

	result := s.DB.WithContext(ctx).Model(&models.UserProfile{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, classify("update profile", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, classify("update profile", gorm.ErrRecordNotFound)
	}
	return s.Get(ctx, id)
}
