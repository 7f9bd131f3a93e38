// Package auth manages the OAuth2 client-credentials token used for every
// outbound call to the search and completion APIs.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"gloo-search-gateway/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	// ExpiryBuffer is how long before expiry a cached token stops being used.
	ExpiryBuffer = 60 * time.Second

	defaultTokenTimeout = 30 * time.Second
	tokenRequestBody    = "grant_type=client_credentials&scope=api/access"
)

var errMissingTokenFields = errors.New("token response is missing access_token or expires_in")

// Token is a bearer credential together with its absolute expiry.
type Token struct {
	AccessToken           string
	TokenType             string
	ExpiresAtEpochSeconds int64
}

// Usable reports whether the token can still be presented at time now.
func (t *Token) Usable(now time.Time) bool {
	if t == nil {
		return false
	}
	return now.Unix() < t.ExpiresAtEpochSeconds-int64(ExpiryBuffer/time.Second)
}

// AuthenticationError is returned when the token endpoint rejects the
// credentials or answers with something that is not a token.
type AuthenticationError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to obtain access token: HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("failed to obtain access token: HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

type CredentialCacheConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Timeout      time.Duration
}

// CredentialCache owns the single process-wide token. Reads are lock-free;
// concurrent refreshes are collapsed into one request to the token endpoint.
type CredentialCache struct {
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client
	logger       zerolog.Logger

	token   atomic.Pointer[Token]
	refresh singleflight.Group
	now     func() time.Time
}

func NewCredentialCache(cfg CredentialCacheConfig, logger zerolog.Logger) *CredentialCache {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTokenTimeout
	}

	return &CredentialCache{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokenURL:     cfg.TokenURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With().Str("component", "credential_cache").Logger(),
		now:    time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (c *CredentialCache) SetClock(now func() time.Time) {
	c.now = now
}

// EnsureValidToken returns a bearer token that stays valid for at least
// ExpiryBuffer. A cached token is returned without any network call.
func (c *CredentialCache) EnsureValidToken(ctx context.Context) (string, error) {
	if tok := c.token.Load(); tok.Usable(c.now()) {
		return tok.AccessToken, nil
	}

	// A refresh is shared by every waiting caller and ignores the
	// cancellation of whichever caller started it.
	refreshCtx := context.WithoutCancel(ctx)

	v, err, shared := c.refresh.Do("token", func() (interface{}, error) {
		if tok := c.token.Load(); tok.Usable(c.now()) {
			return tok, nil
		}
		return c.fetchToken(refreshCtx)
	})
	if err != nil {
		return "", err
	}

	if shared {
		c.logger.Debug().Msg("Joined in-flight token refresh")
	}

	return v.(*Token).AccessToken, nil
}

// Current returns the cached token, or nil when none has been fetched.
func (c *CredentialCache) Current() *Token {
	return c.token.Load()
}

func (c *CredentialCache) fetchToken(ctx context.Context) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(tokenRequestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain access token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &AuthenticationError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tokenResp models.TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, &AuthenticationError{StatusCode: resp.StatusCode, Body: string(body), Err: err}
	}
	if tokenResp.AccessToken == "" || tokenResp.ExpiresIn == nil {
		return nil, &AuthenticationError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        errMissingTokenFields,
		}
	}

	tok := &Token{
		AccessToken:           tokenResp.AccessToken,
		TokenType:             tokenResp.TokenType,
		ExpiresAtEpochSeconds: c.now().Unix() + *tokenResp.ExpiresIn,
	}
	c.token.Store(tok)

	c.logger.Info().
		Int64("expires_in", *tokenResp.ExpiresIn).
		Str("token_type", tok.TokenType).
		Msg("Access token refreshed")

	return tok, nil
}
