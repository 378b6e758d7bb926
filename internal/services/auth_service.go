package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	intconfig "collegetour/internal/config"
	"collegetour/internal/domain"
	"collegetour/internal/domain/models"
	"collegetour/internal/repositories"
	"collegetour/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const DefaultTokenTTL = 7 * 24 * time.Hour

// Claims carried in the session token. Subject is the user id.
type Claims struct {
	Role  domain.Role `json:"role"`
	Email string      `json:"email"`
	jwt.RegisteredClaims
}

type AuthService struct {
	DB        *sql.DB
	Secret    []byte
	TTL       time.Duration
	RequestID string
	Now       func() time.Time
}

func (s AuthService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s AuthService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultTokenTTL
}

func hashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Register creates a student account under an active college.
func (s AuthService) Register(ctx context.Context, in RegisterInput) (models.User, string, error) {
	u, err := in.toModel()
	if err != nil {
		return models.User{}, "", err
	}
	college, err := repositories.CollegeRepository{DB: s.db()}.GetByID(ctx, u.CollegeID, false)
	if err != nil {
		if domain.IsNotFound(err) {
			return models.User{}, "", domain.ValidationError{Field: "collegeId", Msg: "college not found"}
		}
		return models.User{}, "", err
	}
	if !college.IsActive {
		return models.User{}, "", domain.ValidationError{Field: "collegeId", Msg: "college is not accepting registrations"}
	}
	if !college.HasDepartment(u.Department) {
		return models.User{}, "", domain.ValidationError{Field: "department", Msg: "is not offered by the selected college"}
	}

	if u.PasswordHash, err = hashPassword(in.Password); err != nil {
		return models.User{}, "", err
	}
	users := repositories.UserRepository{DB: s.db()}
	id, err := users.Create(ctx, u)
	if err != nil {
		return models.User{}, "", err
	}
	u.ID = id
	u.CreatedAt, u.UpdatedAt = s.now(), s.now()

	token, err := s.IssueToken(u)
	if err != nil {
		return models.User{}, "", err
	}
	utils.LogEvent(s.RequestID, "auth", "register", "user_id="+strconv.FormatInt(id, 10))
	return u, token, nil
}

// Login checks credentials and returns a signed token.
func (s AuthService) Login(ctx context.Context, email, password string) (models.User, string, error) {
	u, err := repositories.UserRepository{DB: s.db()}.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if domain.IsNotFound(err) {
			return models.User{}, "", domain.UnauthorizedError{Reason: domain.ReasonInvalidCredentials, Msg: "invalid email or password"}
		}
		return models.User{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return models.User{}, "", domain.UnauthorizedError{Reason: domain.ReasonInvalidCredentials, Msg: "invalid email or password"}
	}
	if !u.IsActive {
		return models.User{}, "", domain.MismatchError{Reason: domain.ReasonAccountInactive, Msg: "account is deactivated"}
	}
	token, err := s.IssueToken(u)
	if err != nil {
		return models.User{}, "", err
	}
	utils.LogEvent(s.RequestID, "auth", "login", "user_id="+strconv.FormatInt(u.ID, 10))
	return u, token, nil
}

func (s AuthService) IssueToken(u models.User) (string, error) {
	if len(s.Secret) == 0 {
		return "", domain.InternalError{Msg: "token secret not configured"}
	}
	now := s.now()
	claims := Claims{
		Role:  u.Role,
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl())),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a token and returns the caller identity.
func (s AuthService) ParseToken(raw string) (domain.RequestContext, error) {
	invalid := domain.UnauthorizedError{Reason: "invalid_token", Msg: "invalid or expired token"}
	if raw == "" || len(s.Secret) == 0 {
		return domain.RequestContext{}, invalid
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return domain.RequestContext{}, invalid
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 || !claims.Role.Valid() {
		return domain.RequestContext{}, invalid
	}
	return domain.RequestContext{UserID: domain.ID(id), Role: claims.Role, Email: claims.Email}, nil
}

// Authenticate validates a token and resolves the caller against the
// current account row, so role changes and deletions apply to the next request.
func (s AuthService) Authenticate(ctx context.Context, raw string) (domain.RequestContext, error) {
	rc, err := s.ParseToken(raw)
	if err != nil {
		return domain.RequestContext{}, err
	}
	u, err := s.Me(ctx, int64(rc.UserID))
	if err != nil {
		return domain.RequestContext{}, err
	}
	return domain.RequestContext{UserID: domain.ID(u.ID), Role: u.Role, Email: u.Email}, nil
}

// Me loads the caller's account; deleted or deactivated accounts are rejected.
func (s AuthService) Me(ctx context.Context, userID int64) (models.User, error) {
	u, err := repositories.UserRepository{DB: s.db()}.GetByID(ctx, userID, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || domain.IsNotFound(err) {
			return models.User{}, domain.UnauthorizedError{Reason: "invalid_token", Msg: "account no longer exists"}
		}
		return models.User{}, err
	}
	if !u.IsActive {
		return models.User{}, domain.MismatchError{Reason: domain.ReasonAccountInactive, Msg: "account is deactivated"}
	}
	return u, nil
}
