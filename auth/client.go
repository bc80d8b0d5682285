package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jpilocastillo/m8bizz-sub004/internal/config"
	apperrors "github.com/jpilocastillo/m8bizz-sub004/internal/errors"
	"github.com/jpilocastillo/m8bizz-sub004/sessions"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

var _ Service = (*HostedClient)(nil)

// HostedClient speaks the OAuth2 token endpoint of the hosted auth service:
// password grant for sign in and refresh_token grant for renewal.
type HostedClient struct {
	oauth      *oauth2.Config
	verifier   TokenVerifier
	logoutURL  string
	httpClient *http.Client
	now        func() time.Time
}

type ClientOption func(*HostedClient)

// WithHTTPClient sets the client used for every upstream call.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HostedClient) {
		c.httpClient = client
	}
}

func WithClock(now func() time.Time) ClientOption {
	return func(c *HostedClient) {
		c.now = now
	}
}

func NewHostedClient(endpoint oauth2.Endpoint, cfg config.BackendConfig, verifier TokenVerifier, opts ...ClientOption) *HostedClient {
	c := &HostedClient{
		oauth: &oauth2.Config{
			ClientID:     cfg.GetAuthClientID(),
			ClientSecret: cfg.GetAuthClientSecret(),
			Endpoint:     endpoint,
		},
		verifier:  verifier,
		logoutURL: cfg.GetAuthLogoutURL(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig wires the client described by cfg. Without backend
// configuration it returns a Service whose every call fails with
// ErrNotConfigured, so the dashboard still starts.
func NewFromConfig(ctx context.Context, cfg config.BackendConfig) (Service, error) {
	if !cfg.IsBackendConfigured() {
		log.Warn().Msg("auth backend not configured, sign in is disabled")
		return Unconfigured{}, nil
	}

	endpoint := oauth2.Endpoint{TokenURL: cfg.GetAuthTokenURL(), AuthStyle: oauth2.AuthStyleInParams}
	if issuer := cfg.GetAuthOIDCIssuer(); issuer != "" {
		provider, err := oidc.NewProvider(ctx, issuer)
		if err != nil {
			return nil, fmt.Errorf("[auth NewFromConfig] failed to create OIDC provider: %w", err)
		}
		if endpoint.TokenURL == "" {
			endpoint.TokenURL = provider.Endpoint().TokenURL
		}
		return NewHostedClient(endpoint, cfg, NewOIDCVerifier(provider, cfg.GetAuthClientID())), nil
	}
	return NewHostedClient(endpoint, cfg, NewHMACVerifier(cfg.GetAuthJWTSecret())), nil
}

func (c *HostedClient) context(ctx context.Context) context.Context {
	if c.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func (c *HostedClient) SignIn(ctx context.Context, email, password string) (sessions.Session, error) {
	if email == "" || password == "" {
		return sessions.Session{}, apperrors.ErrInvalidCredentials
	}

	tok, err := c.oauth.PasswordCredentialsToken(c.context(ctx), email, password)
	if err != nil {
		if isRejected(err) {
			return sessions.Session{}, fmt.Errorf("[auth SignIn] %w: %w", apperrors.ErrInvalidCredentials, err)
		}
		return sessions.Session{}, fmt.Errorf("[auth SignIn] token request failed: %w", err)
	}
	return c.sessionFromToken(ctx, tok)
}

func (c *HostedClient) Refresh(ctx context.Context, current sessions.Session) (sessions.Session, error) {
	if current.RefreshToken == "" {
		return sessions.Session{}, apperrors.ErrNoRefreshToken
	}

	// A token without an access token is never valid, so the source always
	// goes to the endpoint with the refresh_token grant.
	src := c.oauth.TokenSource(c.context(ctx), &oauth2.Token{RefreshToken: current.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return sessions.Session{}, fmt.Errorf("[auth Refresh] token request failed: %w", err)
	}

	renewed, err := c.sessionFromToken(ctx, tok)
	if err != nil {
		return sessions.Session{}, err
	}
	renewed.ID = current.ID
	renewed.CreatedAt = current.CreatedAt
	return renewed, nil
}

func (c *HostedClient) SignOut(ctx context.Context, current sessions.Session) error {
	if c.logoutURL == "" || current.AccessToken == "" {
		return nil
	}

	client := oauth2.NewClient(c.context(ctx), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: current.AccessToken,
		TokenType:   "Bearer",
	}))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.logoutURL, nil)
	if err != nil {
		return fmt.Errorf("[auth SignOut] build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("[auth SignOut] request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("[auth SignOut] unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *HostedClient) sessionFromToken(ctx context.Context, tok *oauth2.Token) (sessions.Session, error) {
	identity, err := c.verifier.Verify(ctx, tok.AccessToken)
	if err != nil {
		return sessions.Session{}, fmt.Errorf("[auth sessionFromToken] %w", err)
	}

	return sessions.Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    expiresAt(tok, identity),
		User:         sessions.User{ID: identity.UserID, Email: identity.Email},
		CreatedAt:    c.now(),
	}, nil
}

// expiresAt prefers the absolute expires_at the service returns over the
// relative expires_in that oauth2 turns into Expiry.
func expiresAt(tok *oauth2.Token, identity Identity) int64 {
	switch v := tok.Extra("expires_at").(type) {
	case float64:
		return int64(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	if !tok.Expiry.IsZero() {
		return tok.Expiry.Unix()
	}
	return identity.ExpiresAt.Unix()
}

func isRejected(err error) bool {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) || retrieveErr.Response == nil {
		return false
	}
	code := retrieveErr.Response.StatusCode
	return code == http.StatusBadRequest || code == http.StatusUnauthorized
}
