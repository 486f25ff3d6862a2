package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/classtrack/rollcall/internal/apperrors"
	"github.com/classtrack/rollcall/internal/models"
	"github.com/classtrack/rollcall/internal/repository"
)

const (
	defaultAccessTokenTTL = 8 * time.Hour
	signingMethod         = "HS256"
)

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	TeacherID uuid.UUID `json:"tid"`
}

// Issued access token with its expiry
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

type Config struct {
	// Secret key to sign access tokens
	// Required to be set
	SecretKey string

	// Hasher to compare teacher passwords, bcrypt if not set
	Hasher PasswordHasher

	// Access token lifetime
	// If not set then default is used
	AccessTTL time.Duration
}

// Service authenticates teachers: password login and bearer token checks
// for the session-owning endpoints.
type Service struct {
	key         string
	alg         jwt.SigningMethod
	accessTTL   time.Duration
	hasher      PasswordHasher
	teacherRepo repository.TeacherRepo
}

func NewService(cfg Config, teacherRepo repository.TeacherRepo) (*Service, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}
	if teacherRepo == nil {
		return nil, errors.New("teacher repo must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = defaultAccessTokenTTL
	}

	return &Service{
		key:         cfg.SecretKey,
		alg:         jwt.GetSigningMethod(signingMethod),
		accessTTL:   cfg.AccessTTL,
		hasher:      hasher,
		teacherRepo: teacherRepo,
	}, nil
}

// Login checks the password and issues an access token.
// Wrong email and wrong password collapse into the same error.
func (s *Service) Login(ctx context.Context, email string, password string) (models.Teacher, IssuedToken, error) {
	teacher, err := s.teacherRepo.GetTeacherByEmail(ctx, email)
	if err != nil {
		return models.Teacher{}, IssuedToken{}, apperrors.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(teacher.HashedPassword, password); err != nil {
		return models.Teacher{}, IssuedToken{}, apperrors.ErrInvalidCredentials
	}

	token, err := s.issueAccessToken(teacher)
	if err != nil {
		return models.Teacher{}, IssuedToken{}, fmt.Errorf("error while issuing access token. Err: %w", err)
	}

	return teacher, token, nil
}

func (s *Service) issueAccessToken(teacher models.Teacher) (IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(s.accessTTL)

	accessToken := jwt.NewWithClaims(
		s.alg,
		AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			TeacherID: teacher.ID,
		},
	)

	value, err := accessToken.SignedString([]byte(s.key))
	if err != nil {
		return IssuedToken{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return IssuedToken{Value: value, ExpiresAt: expiresAt}, nil
}

// ParseAccess validates the token string and returns the teacher id inside
func (s *Service) ParseAccess(access string) (uuid.UUID, error) {
	claims := &AccessTokenClaims{}

	_, err := jwt.ParseWithClaims(
		access,
		claims,
		func(t *jwt.Token) (any, error) {
			return []byte(s.key), nil
		},
		jwt.WithValidMethods([]string{s.alg.Alg()}),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("error while parsing or validating token. Err: %w", err)
	}

	return claims.TeacherID, nil
}

// Auth resolves the teacher behind the request's Authorization header
func (s *Service) Auth(ctx context.Context, r *http.Request) (models.Teacher, error) {
	header := r.Header.Get("Authorization")
	access, found := strings.CutPrefix(header, "Bearer ")
	if !found || access == "" {
		return models.Teacher{}, errors.New("missing bearer token")
	}

	teacherID, err := s.ParseAccess(access)
	if err != nil {
		return models.Teacher{}, err
	}

	return s.teacherRepo.GetTeacherByID(ctx, teacherID)
}
