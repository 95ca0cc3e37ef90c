package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/learntrack/backend/internal/config"
	"github.com/learntrack/backend/pkg/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const oauthStateTTL = 10 * time.Minute

var (
	ErrOAuthDisabled     = errors.New("oauth sign-in is not configured")
	ErrOAuthInvalidState = errors.New("invalid or expired oauth state")
	ErrOAuthExchange     = errors.New("failed to exchange code for token")
	ErrOAuthNoIDToken    = errors.New("provider response carried no id_token")
)

type OAuthState struct {
	Nonce     string
	Remember  bool
	ExpiresAt time.Time
}

// OAuthService runs the authorization-code flow against Google or a generic
// OIDC issuer and turns the verified ID token into an Identity.
type OAuthService struct {
	Cfg config.SSOConfig

	mu       sync.Mutex
	states   map[string]OAuthState
	provider *oidc.Provider
	now      func() time.Time
}

func NewOAuthService(cfg config.SSOConfig) *OAuthService {
	return &OAuthService{Cfg: cfg, states: map[string]OAuthState{}, now: time.Now}
}

func (s *OAuthService) Enabled() bool {
	return s.Cfg.Enabled()
}

// oidcProvider discovers the issuer once and reuses it.
func (s *OAuthService) oidcProvider(ctx context.Context) (*oidc.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.provider != nil {
		return s.provider, nil
	}

	provider, err := oidc.NewProvider(ctx, s.Cfg.IssuerURL)
	if err != nil {
		logger.Error("oidc_discovery_failed", err, map[string]interface{}{
			"issuer": s.Cfg.IssuerURL,
		})
		return nil, err
	}
	s.provider = provider
	return provider, nil
}

func (s *OAuthService) OAuthConfig(ctx context.Context) (*oauth2.Config, error) {
	if !s.Enabled() {
		return nil, ErrOAuthDisabled
	}

	cfg := &oauth2.Config{
		ClientID:     s.Cfg.ClientID,
		ClientSecret: s.Cfg.ClientSecret,
		RedirectURL:  s.Cfg.RedirectURL,
		Scopes:       splitScopes(s.Cfg.Scopes),
	}

	switch s.Cfg.Provider {
	case "google", "":
		cfg.Endpoint = google.Endpoint
	case "oidc":
		provider, err := s.oidcProvider(ctx)
		if err != nil {
			return nil, err
		}
		cfg.Endpoint = provider.Endpoint()
	default:
		return nil, errors.New("unknown oauth provider: " + s.Cfg.Provider)
	}
	return cfg, nil
}

func splitScopes(raw string) []string {
	var scopes []string
	for _, scope := range strings.Split(raw, ",") {
		if scope = strings.TrimSpace(scope); scope != "" {
			scopes = append(scopes, scope)
		}
	}
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "email", "profile"}
	}
	return scopes
}

// GenerateState issues a single-use state value for one login attempt.
func (s *OAuthService) GenerateState(remember bool) (string, error) {
	nonceBytes := make([]byte, 32)
	if _, err := rand.Read(nonceBytes); err != nil {
		return "", err
	}
	nonce := base64.RawURLEncoding.EncodeToString(nonceBytes)

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, st := range s.states {
		if now.After(st.ExpiresAt) {
			delete(s.states, key)
		}
	}
	s.states[nonce] = OAuthState{Nonce: nonce, Remember: remember, ExpiresAt: now.Add(oauthStateTTL)}
	return nonce, nil
}

// ConsumeState validates and removes a state value.
func (s *OAuthService) ConsumeState(value string) (OAuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[value]
	if !ok {
		return OAuthState{}, ErrOAuthInvalidState
	}
	delete(s.states, value)
	if s.now().After(st.ExpiresAt) {
		return OAuthState{}, ErrOAuthInvalidState
	}
	return st, nil
}

func (s *OAuthService) AuthCodeURL(ctx context.Context, remember bool) (string, error) {
	cfg, err := s.OAuthConfig(ctx)
	if err != nil {
		return "", err
	}
	state, err := s.GenerateState(remember)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// Exchange trades the authorization code for tokens and verifies the ID
// token against the issuer's keys.
func (s *OAuthService) Exchange(ctx context.Context, code string) (*Identity, error) {
	cfg, err := s.OAuthConfig(ctx)
	if err != nil {
		return nil, err
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		logger.Warn("oauth_exchange_failed", map[string]interface{}{
			"provider": s.Cfg.Provider,
			"error":    err.Error(),
		})
		return nil, ErrOAuthExchange
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, ErrOAuthNoIDToken
	}

	provider, err := s.oidcProvider(ctx)
	if err != nil {
		return nil, err
	}
	idToken, err := provider.Verifier(&oidc.Config{ClientID: s.Cfg.ClientID}).Verify(ctx, rawIDToken)
	if err != nil {
		logger.Warn("oauth_id_token_rejected", map[string]interface{}{
			"provider": s.Cfg.Provider,
			"error":    err.Error(),
		})
		return nil, err
	}

	var claims struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, err
	}

	return &Identity{
		Subject:     idToken.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
		AvatarURL:   claims.Picture,
	}, nil
}
