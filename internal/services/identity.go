package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/learntrack/backend/internal/models"
	"github.com/learntrack/backend/internal/store"
	"github.com/learntrack/backend/pkg/logger"
	"github.com/learntrack/backend/pkg/utils"
)

var ErrIdentitySubjectRequired = errors.New("identity has no subject")

// Identity is what the identity provider tells us about a signed-in user.
type Identity struct {
	Subject     string
	Email       string
	DisplayName string
	AvatarURL   string
}

type SignInResult struct {
	Profile     *models.UserProfile `json:"user"`
	Token       string              `json:"token"`
	ExpiresAt   time.Time           `json:"expiresAt"`
	FirstSignIn bool                `json:"firstSignIn"`
}

type IdentityService struct {
	Roster      *store.RosterStore
	AdminEmails []string
	now         func() time.Time
}

func NewIdentityService(roster *store.RosterStore, adminEmails []string) *IdentityService {
	return &IdentityService{Roster: roster, AdminEmails: adminEmails, now: time.Now}
}

// SignIn records the sign-in on the roster and issues a session token. The
// first sign-in creates the profile as a student with no section; later
// sign-ins only move last_login_at.
func (s *IdentityService) SignIn(ctx context.Context, id Identity, remember bool) (*SignInResult, error) {
	subject := strings.TrimSpace(id.Subject)
	if subject == "" {
		return nil, ErrIdentitySubjectRequired
	}
	now := s.now().UTC()

	profile, err := s.Roster.Get(ctx, subject)
	firstSignIn := false
	switch {
	case store.IsNotFound(err):
		firstSignIn = true
		profile, err = s.Roster.Upsert(ctx, s.newProfile(subject, id, now))
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if err := s.Roster.Touch(ctx, subject, now); err != nil {
			return nil, err
		}
		profile.LastLoginAt = now
	}

	token, expiresAt, err := utils.GenerateToken(profile, remember)
	if err != nil {
		logger.ErrorWithUser(subject, "token_issue_failed", err, nil)
		return nil, err
	}

	logger.InfoWithUser(subject, "user_signed_in", map[string]interface{}{
		"first_sign_in": firstSignIn,
		"remember":      remember,
		"role":          string(profile.Role),
	})

	return &SignInResult{
		Profile:     profile,
		Token:       token,
		ExpiresAt:   expiresAt,
		FirstSignIn: firstSignIn,
	}, nil
}

func (s *IdentityService) newProfile(subject string, id Identity, now time.Time) *models.UserProfile {
	profile := &models.UserProfile{
		ID:          subject,
		Email:       strings.TrimSpace(id.Email),
		DisplayName: strings.TrimSpace(id.DisplayName),
		Role:        models.UserRoleStudent,
		LastLoginAt: now,
	}
	if profile.DisplayName == "" {
		profile.DisplayName = profile.Email
	}
	if id.AvatarURL != "" {
		avatar := id.AvatarURL
		profile.AvatarURL = &avatar
	}
	if s.isBootstrapAdmin(profile.Email) {
		profile.Role = models.UserRoleAdmin
	}
	return profile
}

// isBootstrapAdmin reports whether email is listed in ADMIN_EMAILS. It only
// applies when the profile is first created.
func (s *IdentityService) isBootstrapAdmin(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, admin := range s.AdminEmails {
		if admin == email {
			return true
		}
	}
	return false
}
