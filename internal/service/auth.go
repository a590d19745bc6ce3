package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/faucetdb/useradmin/internal/model"
	"github.com/faucetdb/useradmin/internal/store"
)

const sessionIssuer = "useradmin"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid session")
)

// AdminLookup finds an administrator account by exact username. It returns
// store.ErrNotFound when no account matches.
type AdminLookup interface {
	GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error)
}

// Session is the verified identity carried by a session token.
type Session struct {
	ID        string
	AdminID   int64
	Username  string
	ExpiresAt time.Time
}

// AuthService verifies administrator credentials and issues and validates
// signed session tokens. It holds no per-session state.
type AuthService struct {
	admins AdminLookup
	secret []byte
	ttl    time.Duration
}

func NewAuthService(admins AdminLookup, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		admins: admins,
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// TTL reports how long issued sessions stay valid.
func (s *AuthService) TTL() time.Duration {
	return s.ttl
}

// Authenticate checks username and password against the stored bcrypt hash.
// Unknown usernames and wrong passwords both yield ErrInvalidCredentials and
// cost one bcrypt comparison. Any other error is a store failure.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*model.Admin, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	admin, err := s.admins.GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			CheckPassword(dummyHash(), password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup admin: %w", err)
	}

	if !CheckPassword(admin.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return admin, nil
}

// IssueSession creates a signed session token for admin.
func (s *AuthService) IssueSession(admin *model.Admin) (string, *Session, error) {
	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		AdminID:   admin.ID,
		Username:  admin.Username,
		ExpiresAt: now.Add(s.ttl),
	}

	claims := sessionClaims{
		AdminID:  sess.AdminID,
		Username: sess.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
			Issuer:    sessionIssuer,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session: %w", err)
	}
	return token, sess, nil
}

// ValidateSession verifies a session token's signature, issuer and expiry.
func (s *AuthService) ValidateSession(token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalidSession
	}
	if claims.AdminID == 0 || claims.Username == "" {
		return nil, ErrInvalidSession
	}

	return &Session{
		ID:        claims.ID,
		AdminID:   claims.AdminID,
		Username:  claims.Username,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

type sessionClaims struct {
	AdminID  int64  `json:"admin_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// HashPassword returns a bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var (
	dummyOnce sync.Once
	dummy     string
)

// dummyHash is compared against when the username does not exist so both
// failure paths take the same time.
func dummyHash() string {
	dummyOnce.Do(func() {
		h, _ := bcrypt.GenerateFromPassword([]byte("useradmin-timing-equalizer"), bcrypt.DefaultCost)
		dummy = string(h)
	})
	return dummy
}
