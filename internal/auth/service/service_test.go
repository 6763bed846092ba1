package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"crm_portal_backend/internal/auth/repository"
	"crm_portal_backend/internal/auth/transport"
	"crm_portal_backend/platform/apperr"
	"crm_portal_backend/platform/logger"
)

type fakeUserRepo struct {
	users map[string]repository.User
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (repository.User, error) {
	user, ok := f.users[email]
	if !ok {
		return repository.User{}, apperr.NotFound("user not found")
	}
	return user, nil
}

func (f *fakeUserRepo) GetUserEmail(_ context.Context, id uuid.UUID) (string, error) {
	for _, user := range f.users {
		if user.ID == id {
			return user.Email, nil
		}
	}
	return "", apperr.NotFound("user not found")
}

type authConfig struct{}

func (authConfig) GetJWTAccessSecret() string       { return "test-secret" }
func (authConfig) GetAccessTokenTTL() time.Duration { return 15 * time.Minute }

func newTestService(t *testing.T, users ...repository.User) *Service {
	t.Helper()
	repo := &fakeUserRepo{users: make(map[string]repository.User)}
	for _, user := range users {
		repo.users[user.Email] = user
	}
	return New(repo, authConfig{}, logger.New("development"))
}

func testUser(t *testing.T, password string) repository.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	tenantID := uuid.New()
	return repository.User{
		ID:           uuid.New(),
		TenantID:     &tenantID,
		TenantType:   "STANDARD",
		Email:        "ana@example.com",
		Name:         "Ana",
		PasswordHash: string(hash),
		Roles:        []string{"sales"},
		IsActive:     true,
	}
}

func TestLoginIssuesAccessTokenWithScopeClaims(t *testing.T) {
	user := testUser(t, "s3cret")
	svc := newTestService(t, user)

	resp, err := svc.Login(context.Background(), transport.LoginRequest{
		Email:    "ana@example.com",
		Password: "s3cret",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.TokenType != "Bearer" {
		t.Fatalf("expected Bearer token type, got %q", resp.TokenType)
	}
	if resp.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Fatalf("unexpected expiry %d", resp.ExpiresIn)
	}

	parsed, err := jwt.Parse(resp.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("parse token: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)

	if claims["sub"] != user.ID.String() {
		t.Fatalf("expected sub %s, got %v", user.ID, claims["sub"])
	}
	if claims["tenant_id"] != user.TenantID.String() {
		t.Fatalf("expected tenant_id %s, got %v", user.TenantID, claims["tenant_id"])
	}
	if claims["tenant_type"] != "STANDARD" {
		t.Fatalf("expected tenant_type STANDARD, got %v", claims["tenant_type"])
	}
	if claims["type"] != "access" {
		t.Fatalf("expected type access, got %v", claims["type"])
	}
}

func TestLoginOmitsTenantClaimForGlobalAdmins(t *testing.T) {
	user := testUser(t, "s3cret")
	user.TenantID = nil
	user.TenantType = "GLOBAL_ADMIN"
	svc := newTestService(t, user)

	resp, err := svc.Login(context.Background(), transport.LoginRequest{
		Email:    "ana@example.com",
		Password: "s3cret",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	parsed, _ := jwt.Parse(resp.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	claims := parsed.Claims.(jwt.MapClaims)

	if _, ok := claims["tenant_id"]; ok {
		t.Fatalf("expected no tenant_id claim, got %v", claims["tenant_id"])
	}
	if claims["tenant_type"] != "GLOBAL_ADMIN" {
		t.Fatalf("expected tenant_type GLOBAL_ADMIN, got %v", claims["tenant_type"])
	}
}

func TestLoginWrongPasswordRejected(t *testing.T) {
	svc := newTestService(t, testUser(t, "s3cret"))

	_, err := svc.Login(context.Background(), transport.LoginRequest{
		Email:    "ana@example.com",
		Password: "wrong",
	})
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnknownEmailRejectedWithSameError(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Login(context.Background(), transport.LoginRequest{
		Email:    "nobody@example.com",
		Password: "s3cret",
	})
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err.Error() != "invalid credentials" {
		t.Fatalf("expected opaque credentials error, got %q", err.Error())
	}
}

func TestLoginInactiveAccountRejected(t *testing.T) {
	user := testUser(t, "s3cret")
	user.IsActive = false
	svc := newTestService(t, user)

	_, err := svc.Login(context.Background(), transport.LoginRequest{
		Email:    "ana@example.com",
		Password: "s3cret",
	})
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
