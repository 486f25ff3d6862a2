package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/rollcall/internal/apperrors"
	"github.com/classtrack/rollcall/internal/models"
)

// In-memory teacher repo, enough for auth unit tests
type fakeTeacherRepo struct {
	teachers map[string]models.Teacher
}

func (r *fakeTeacherRepo) CreateTeacher(ctx context.Context, email string, fullName string, hashedPassword string) (models.Teacher, error) {
	t := models.Teacher{
		ID:             uuid.New(),
		CreatedAt:      time.Now(),
		Email:          email,
		FullName:       fullName,
		HashedPassword: hashedPassword,
	}
	r.teachers[email] = t
	return t, nil
}

func (r *fakeTeacherRepo) GetTeacherByEmail(ctx context.Context, email string) (models.Teacher, error) {
	t, ok := r.teachers[email]
	if !ok {
		return models.Teacher{}, apperrors.ErrTeacherNotFound
	}
	return t, nil
}

func (r *fakeTeacherRepo) GetTeacherByID(ctx context.Context, id uuid.UUID) (models.Teacher, error) {
	for _, t := range r.teachers {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Teacher{}, apperrors.ErrTeacherNotFound
}

func newTestService(t *testing.T) (*Service, models.Teacher) {
	t.Helper()

	repo := &fakeTeacherRepo{teachers: map[string]models.Teacher{}}

	hash, err := BcryptHasher{}.Hash("correct-password")
	require.NoError(t, err)
	teacher, err := repo.CreateTeacher(t.Context(), "teacher@rollcall.test", "Test Teacher", hash)
	require.NoError(t, err)

	service, err := NewService(Config{SecretKey: "test-secret-key"}, repo)
	require.NoError(t, err)

	return service, teacher
}

func TestNewService(t *testing.T) {
	t.Run("empty secret rejected", func(t *testing.T) {
		_, err := NewService(Config{}, &fakeTeacherRepo{teachers: map[string]models.Teacher{}})

		require.Error(t, err)
	})

	t.Run("nil repo rejected", func(t *testing.T) {
		_, err := NewService(Config{SecretKey: "key"}, nil)

		require.Error(t, err)
	})
}

func TestService_Login(t *testing.T) {
	service, teacher := newTestService(t)

	t.Run("ok", func(t *testing.T) {
		got, token, err := service.Login(t.Context(), "teacher@rollcall.test", "correct-password")

		require.NoError(t, err)
		assert.Equal(t, teacher.ID, got.ID)
		assert.NotEmpty(t, token.Value)
		assert.WithinDuration(t, time.Now().Add(defaultAccessTokenTTL), token.ExpiresAt, time.Minute)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := service.Login(t.Context(), "teacher@rollcall.test", "wrong-password")

		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := service.Login(t.Context(), "nobody@rollcall.test", "correct-password")

		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials, "unknown email and wrong password must be indistinguishable")
	})

	t.Run("access token has expected claims", func(t *testing.T) {
		_, token, err := service.Login(t.Context(), "teacher@rollcall.test", "correct-password")
		require.NoError(t, err)

		parsed, err := jwt.ParseWithClaims(token.Value, &AccessTokenClaims{}, func(tk *jwt.Token) (any, error) {
			return []byte("test-secret-key"), nil
		})
		require.NoError(t, err)
		require.True(t, parsed.Valid)

		claims, ok := parsed.Claims.(*AccessTokenClaims)
		require.True(t, ok)
		assert.Equal(t, teacher.ID, claims.TeacherID)
		assert.NotEmpty(t, claims.ID, "token has to have jti")
	})
}

func TestService_Auth(t *testing.T) {
	service, teacher := newTestService(t)

	_, token, err := service.Login(t.Context(), "teacher@rollcall.test", "correct-password")
	require.NoError(t, err)

	t.Run("ok", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer "+token.Value)

		got, err := service.Auth(t.Context(), r)

		require.NoError(t, err)
		assert.Equal(t, teacher.ID, got.ID)
	})

	t.Run("missing header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)

		_, err := service.Auth(t.Context(), r)

		require.Error(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer not-a-jwt")

		_, err := service.Auth(t.Context(), r)

		require.Error(t, err)
	})

	t.Run("token signed with other key", func(t *testing.T) {
		other, err := NewService(Config{SecretKey: "another-secret-key"}, &fakeTeacherRepo{teachers: map[string]models.Teacher{}})
		require.NoError(t, err)
		forged, err := other.issueAccessToken(teacher)
		require.NoError(t, err)

		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer "+forged.Value)

		_, err = service.Auth(t.Context(), r)

		require.Error(t, err)
	})
}
