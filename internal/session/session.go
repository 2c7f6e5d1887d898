// Package session holds the signed-in identity of a remote client.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dennisdiepolder/workforce/internal/auth"
	"github.com/dennisdiepolder/workforce/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

var ErrAuthRequired = auth.ErrAuthRequired

// Credential is either email and password, or a pre-issued token
type Credential struct {
	Email    string
	Password string
	Token    string
}

type Session struct {
	Token  string
	Claims *auth.Claims
}

// Manager signs in against the OIDC provider and tells listeners when the session changes
type Manager struct {
	issuer   string
	clientID string
	client   *http.Client
	logger   zerolog.Logger

	mu        sync.RWMutex
	current   *Session
	listeners map[int]func(*Session)
	nextID    int
}

func NewManager(issuer, clientID string, logger zerolog.Logger) *Manager {
	return &Manager{
		issuer:    strings.TrimSuffix(issuer, "/"),
		clientID:  clientID,
		client:    &http.Client{Timeout: 15 * time.Second},
		logger:    logger.With().Str("component", "session").Logger(),
		listeners: make(map[int]func(*Session)),
	}
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// SignIn replaces any current session. Failures wrap repository.ErrRemoteWriteFailed.
func (m *Manager) SignIn(ctx context.Context, cred Credential) (*Session, error) {
	token := cred.Token
	if token == "" {
		var err error
		token, err = m.passwordGrant(ctx, cred)
		if err != nil {
			m.logger.Error().Err(err).Str("email", cred.Email).Msg("sign in failed")
			return nil, fmt.Errorf("%w: sign in: %w", repository.ErrRemoteWriteFailed, err)
		}
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: sign in: invalid token: %w", repository.ErrRemoteWriteFailed, err)
	}
	mapClaims, _ := parsed.Claims.(jwt.MapClaims)
	s := &Session{Token: token, Claims: auth.ClaimsFromMap(mapClaims)}

	m.set(s)
	m.logger.Info().Str("email", s.Claims.Email).Str("role", s.Claims.Role).Msg("signed in")
	return s, nil
}

func (m *Manager) passwordGrant(ctx context.Context, cred Credential) (string, error) {
	if m.issuer == "" {
		return "", fmt.Errorf("issuer not configured")
	}
	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {m.clientID},
		"username":   {cred.Email},
		"password":   {cred.Password},
		"scope":      {"openid"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.issuer+"/protocol/openid-connect/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || body.AccessToken == "" {
		if body.ErrorDescription != "" {
			return "", fmt.Errorf("%s: %s", resp.Status, body.ErrorDescription)
		}
		return "", fmt.Errorf("%s: %s", resp.Status, body.Error)
	}
	return body.AccessToken, nil
}

func (m *Manager) SignOut() {
	m.set(nil)
	m.logger.Info().Msg("signed out")
}

func (m *Manager) Current() (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.current != nil
}

// Token returns the bearer token or ErrAuthRequired
func (m *Manager) Token() (string, error) {
	s, ok := m.Current()
	if !ok {
		return "", ErrAuthRequired
	}
	return s.Token, nil
}

// OnChange calls fn with the new session, or nil after sign-out
func (m *Manager) OnChange(fn func(*Session)) (unsubscribe func()) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *Manager) set(s *Session) {
	m.mu.Lock()
	m.current = s
	fns := make([]func(*Session), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
