package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	types "github.com/mioplatform/mio-backend/internal/domain"
	"github.com/mioplatform/mio-backend/internal/data/repos"
	"github.com/mioplatform/mio-backend/internal/platform/ctxutil"
	"github.com/mioplatform/mio-backend/internal/platform/dbctx"
	"github.com/mioplatform/mio-backend/internal/platform/envutil"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

type JWTClaims struct {
	jwt.RegisteredClaims
}

type AuthService interface {
	Register(ctx context.Context, email, password, displayName string) (*types.User, string, error)
	Login(ctx context.Context, email, password string) (*types.User, string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	log       *logger.Logger
	users     repos.UserRepo
	secret    string
	accessTTL time.Duration
}

func NewAuthService(log *logger.Logger, users repos.UserRepo) (AuthService, error) {
	secret := strings.TrimSpace(envutil.Str("JWT_SECRET_KEY", ""))
	if secret == "" {
		return nil, fmt.Errorf("missing JWT_SECRET_KEY")
	}
	ttl := 15 * time.Minute
	if raw := strings.TrimSpace(envutil.Str("JWT_ACCESS_TTL_MINUTES", "")); raw != "" {
		if d, err := time.ParseDuration(raw + "m"); err == nil && d > 0 {
			ttl = d
		}
	}
	return &authService{
		log:       log.With("service", "AuthService"),
		users:     users,
		secret:    secret,
		accessTTL: ttl,
	}, nil
}

func (s *authService) Register(ctx context.Context, email, password, displayName string) (*types.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return nil, "", fmt.Errorf("email and a password of at least 8 characters are required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	existing, err := s.users.GetByEmail(dbc, email)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", fmt.Errorf("email already registered")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	created, err := s.users.Create(dbc, []*types.User{{
		Email:       email,
		Password:    string(hash),
		DisplayName: strings.TrimSpace(displayName),
	}})
	if err != nil {
		return nil, "", err
	}
	user := created[0]
	token, err := s.generateAccessToken(user)
	if err != nil {
		return nil, "", err
	}
	s.log.Info("user registered", "user_id", user.ID)
	return user, token, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*types.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(dbctx.Context{Ctx: ctx}, email)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("invalid credentials")
	}
	token, err := s.generateAccessToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return ctx, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, fmt.Errorf("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("invalid user id in token: %w", err)
	}
	user, err := s.users.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return ctx, err
	}
	if user == nil {
		return ctx, fmt.Errorf("unknown user")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		UserID:  user.ID,
		IsCoach: user.IsCoach(),
	}), nil
}

func (s *authService) generateAccessToken(user *types.User) (string, error) {
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}
