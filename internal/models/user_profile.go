package models

import "time"

type UserRole string

const (
	UserRoleStudent UserRole = "student"
	UserRoleAdmin   UserRole = "admin"
)

func (r UserRole) Valid() bool {
	return r == UserRoleStudent || r == UserRoleAdmin
}

// UserProfile is keyed by the identity provider's subject id.
type UserProfile struct {
	ID          string    `json:"id" gorm:"type:varchar(128);primaryKey"`
	Email       string    `json:"email" gorm:"type:varchar(255);not null;default:'';index"`
	DisplayName string    `json:"displayName" gorm:"type:varchar(255);not null;default:''"`
	AvatarURL   *string   `json:"avatarURL,omitempty" gorm:"type:text"`
	Role        UserRole  `json:"role" gorm:"type:varchar(20);not null;default:'student'"`
	Section     *Section  `json:"section" gorm:"type:varchar(50);index"`
	CreatedAt   time.Time `json:"createdAt" gorm:"not null;autoCreateTime:false"`
	LastLoginAt time.Time `json:"lastLoginAt" gorm:"not null"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"not null;autoUpdateTime:false"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

func (u *UserProfile) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}
