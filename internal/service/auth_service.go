package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-essay/internal/config"
	"github.com/stemsi/exstem-essay/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token claims")
	ErrAdminNotFound      = errors.New("admin not found")
)

// TokenType distinguishes writer vs admin tokens.
type TokenType string

const (
	TokenTypeWriter TokenType = "writer"
	TokenTypeAdmin  TokenType = "admin"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType   TokenType `json:"token_type"`
	UserID      int64     `json:"user_id"`
	RoleID      int64     `json:"role_id,omitempty"`     // Admin only
	Permissions []string  `json:"permissions,omitempty"` // Admin only
}

// HasPermission reports whether the token grants code.
func (c *Claims) HasPermission(code string) bool {
	for _, p := range c.Permissions {
		if p == code {
			return true
		}
	}
	return false
}

type adminStore interface {
	GetByID(ctx context.Context, id int64) (*model.Admin, error)
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
}

type roleStore interface {
	GetPermissionsByRoleID(ctx context.Context, roleID int64) ([]string, error)
}

type participantStore interface {
	GetByLogin(ctx context.Context, login string) (*model.Participant, error)
	ListByIDs(ctx context.Context, ids []int64) ([]model.Participant, error)
}

// AuthService handles password checks and JWT issuing for admins and writers.
type AuthService struct {
	cfg          *config.Config
	admins       adminStore
	roles        roleStore
	participants participantStore
	log          zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, admins adminStore, roles roleStore, participants participantStore, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:          cfg,
		admins:       admins,
		roles:        roles,
		participants: participants,
		log:          log.With().Str("component", "auth_service").Logger(),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// AdminLogin verifies admin credentials and issues a token carrying the role's permissions.
func (s *AuthService) AdminLogin(ctx context.Context, req model.AdminLoginRequest) (*model.AdminLoginResponse, error) {
	admin, err := s.admins.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	if err := s.CheckPassword(admin.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	permissions, err := s.roles.GetPermissionsByRoleID(ctx, admin.RoleID)
	if err != nil {
		return nil, fmt.Errorf("get permissions: %w", err)
	}

	token, err := s.GenerateAdminToken(admin.ID, admin.RoleID, permissions)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("admin_id", admin.ID).Msg("admin logged in")
	return &model.AdminLoginResponse{Token: token, Admin: *admin, Permissions: permissions}, nil
}

// AdminProfile returns the admin behind a token and its current permissions.
func (s *AuthService) AdminProfile(ctx context.Context, adminID int64) (*model.Admin, []string, error) {
	admin, err := s.admins.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrAdminNotFound
		}
		return nil, nil, fmt.Errorf("get admin: %w", err)
	}
	permissions, err := s.roles.GetPermissionsByRoleID(ctx, admin.RoleID)
	if err != nil {
		return nil, nil, fmt.Errorf("get permissions: %w", err)
	}
	return admin, permissions, nil
}

// WriterLogin verifies participant credentials and issues a writer token.
func (s *AuthService) WriterLogin(ctx context.Context, req model.WriterLoginRequest) (*model.WriterLoginResponse, error) {
	p, err := s.participants.GetByLogin(ctx, req.Login)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}
	if err := s.CheckPassword(p.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	token, err := s.GenerateWriterToken(p.ID)
	if err != nil {
		return nil, err
	}
	return &model.WriterLoginResponse{Token: token, Participant: *p}, nil
}

// GenerateWriterToken creates a JWT for a participant.
func (s *AuthService) GenerateWriterToken(userID int64) (string, error) {
	return s.sign(Claims{TokenType: TokenTypeWriter, UserID: userID})
}

// GenerateAdminToken creates a JWT for an admin with permissions embedded.
func (s *AuthService) GenerateAdminToken(adminID, roleID int64, permissions []string) (string, error) {
	return s.sign(Claims{
		TokenType:   TokenTypeAdmin,
		UserID:      adminID,
		RoleID:      roleID,
		Permissions: permissions,
	})
}

func (s *AuthService) sign(claims Claims) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   strconv.FormatInt(claims.UserID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
