package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jpilocastillo/m8bizz-sub004/internal/errors"
)

// Identity is what a verified access token says about its bearer.
type Identity struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (Identity, error)
}

type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwtlib.RegisteredClaims
}

// HMACVerifier checks HS256 access tokens signed with the project's JWT secret.
type HMACVerifier struct {
	secret []byte
	opts   []jwtlib.ParserOption
}

func NewHMACVerifier(secret string, opts ...jwtlib.ParserOption) *HMACVerifier {
	return &HMACVerifier{
		secret: []byte(secret),
		opts: append([]jwtlib.ParserOption{
			jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
			jwtlib.WithExpirationRequired(),
		}, opts...),
	}
}

func (v *HMACVerifier) Verify(_ context.Context, rawToken string) (Identity, error) {
	claims := &accessClaims{}
	token, err := jwtlib.ParseWithClaims(rawToken, claims, func(*jwtlib.Token) (interface{}, error) {
		return v.secret, nil
	}, v.opts...)
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("[auth HMACVerifier] %w: %w", apperrors.ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("[auth HMACVerifier] %w: missing sub", apperrors.ErrInvalidToken)
	}
	return Identity{
		UserID:    claims.Subject,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// OIDCVerifier checks access tokens against the issuer's published JWKS.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(provider *oidc.Provider, audience string) *OIDCVerifier {
	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{
			ClientID:          audience,
			SkipClientIDCheck: audience == "",
		}),
	}
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (Identity, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return Identity{}, fmt.Errorf("[auth OIDCVerifier] %w: %w", apperrors.ErrInvalidToken, err)
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := token.Claims(&claims); err != nil {
		return Identity{}, fmt.Errorf("[auth OIDCVerifier] %w: %w", apperrors.ErrInvalidToken, err)
	}
	return Identity{
		UserID:    token.Subject,
		Email:     claims.Email,
		ExpiresAt: token.Expiry,
	}, nil
}
