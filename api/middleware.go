package api

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/court-case-api/databases"
	"github.com/linesmerrill/court-case-api/models"
)

type principalKey struct{}

// TokenClaims are the claims carried by an access token
type TokenClaims struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// MiddlewareDB holds the user database and token settings used by the authenticator
type MiddlewareDB struct {
	DB       databases.UserDatabase
	Secret   []byte
	TokenTTL time.Duration

	authenticator auth.Authenticator
	now           func() time.Time
}

// NewMiddlewareDB builds the authenticator with basic and bearer strategies enabled
func NewMiddlewareDB(db databases.UserDatabase, secret string, tokenTTL time.Duration) *MiddlewareDB {
	m := &MiddlewareDB{DB: db, Secret: []byte(secret), TokenTTL: tokenTTL, now: time.Now}
	m.SetupGoGuardian()
	return m
}

// SetupGoGuardian sets up the go-guardian strategies
func (m *MiddlewareDB) SetupGoGuardian() {
	m.authenticator = auth.New()
	// verified credentials and tokens are cached for one token lifetime
	cache := store.NewFIFO(context.Background(), m.TokenTTL)
	basicStrategy := basic.New(m.ValidateUser, cache)
	tokenStrategy := bearer.New(m.VerifyToken, cache)

	m.authenticator.EnableStrategy(basic.StrategyKey, basicStrategy)
	m.authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
}

// Middleware authenticates the request and stores the principal on its context
func (m *MiddlewareDB) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := m.authenticator.Authenticate(r)
		if err != nil {
			zap.S().Debugw("unauthorized",
				"url", r.URL,
				"error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		p, err := principalFromInfo(info)
		if err != nil {
			zap.S().Warnw("rejecting principal",
				"user", info.UserName(),
				"error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		zap.S().Debugw("authenticated",
			"user", p.ID,
			"role", p.Role)
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// ValidateUser checks an email and password against an active user
func (m *MiddlewareDB) ValidateUser(ctx context.Context, r *http.Request, email, password string) (auth.Info, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	usernameHash := sha256.Sum256([]byte(email))

	user, err := m.DB.FindOne(ctx, bson.M{"user.email": email, "user.isActive": true})
	if err != nil {
		return nil, fmt.Errorf("no active user for email: %w", err)
	}

	expectedUsernameHash := sha256.Sum256([]byte(user.Details.Email))
	usernameMatch := subtle.ConstantTimeCompare(usernameHash[:], expectedUsernameHash[:]) == 1

	if err := bcrypt.CompareHashAndPassword([]byte(user.Details.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("failed to compare password")
	}
	if !usernameMatch {
		return nil, fmt.Errorf("invalid credentials")
	}

	return infoFromPrincipal(user.Principal()), nil
}

// VerifyToken parses a signed access token into the principal it was issued to
func (m *MiddlewareDB) VerifyToken(ctx context.Context, r *http.Request, token string) (auth.Info, error) {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return infoFromPrincipal(models.Principal{
		ID:   claims.Subject,
		Role: models.Role(claims.Role),
		Name: claims.Name,
	}), nil
}

// IssueToken signs an access token for the principal
func (m *MiddlewareDB) IssueToken(p models.Principal) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.TokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		Role: string(p.Role),
		Name: p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(m.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// WithPrincipal returns a copy of ctx carrying the principal
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by the auth middleware
func PrincipalFromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(models.Principal)
	return p, ok
}

func infoFromPrincipal(p models.Principal) auth.Info {
	return auth.NewDefaultUser(p.Name, p.ID, []string{string(p.Role)}, nil)
}

func principalFromInfo(info auth.Info) (models.Principal, error) {
	groups := info.Groups()
	if len(groups) != 1 {
		return models.Principal{}, fmt.Errorf("expected one role, got %d", len(groups))
	}
	role := models.Role(groups[0])
	if !role.Valid() {
		return models.Principal{}, fmt.Errorf("unknown role %q", role)
	}
	return models.Principal{ID: info.ID(), Role: role, Name: info.UserName()}, nil
}
