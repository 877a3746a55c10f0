package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/rmoralesv/moldops-backend/pkg/auth"
	"github.com/rmoralesv/moldops-backend/pkg/config"
	"github.com/rmoralesv/moldops-backend/pkg/db/models"
	"github.com/rmoralesv/moldops-backend/pkg/enums"
	pkgerrors "github.com/rmoralesv/moldops-backend/pkg/errors"
	"github.com/rmoralesv/moldops-backend/pkg/security"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "moldops-test",
	ExpirationMinutes: 15,
}

type fakeUserRepo struct {
	users      map[string]*models.User
	lastLogins map[uuid.UUID]time.Time
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:      map[string]*models.User{},
		lastLogins: map[uuid.UUID]time.Time{},
	}
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.lastLogins[id] = at
	return nil
}

type fakeSessions struct {
	generated []string
	revoked   []string
}

func (f *fakeSessions) Generate(ctx context.Context, accessID string) (string, error) {
	f.generated = append(f.generated, accessID)
	return "refresh-" + accessID, nil
}

func (f *fakeSessions) Revoke(ctx context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	return nil
}

func seedUser(t *testing.T, repo *fakeUserRepo, email, password string, role enums.UserRole, active bool) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FullName:     "Test Operator",
		Role:         role,
		IsActive:     active,
	}
	repo.users[email] = user
	return user
}

func newTestService(t *testing.T) (Service, *fakeUserRepo, *fakeSessions) {
	t.Helper()
	repo := newFakeUserRepo()
	sessions := &fakeSessions{}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig,
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc, repo, sessions
}

func TestLoginSuccess(t *testing.T) {
	svc, repo, sessions := newTestService(t)
	user := seedUser(t, repo, "operator@plant.example", "s3cret-pass", enums.UserRoleOperator, true)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Operator@plant.example",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	if resp.User == nil || resp.User.ID != user.ID {
		t.Fatalf("unexpected user payload: %+v", resp.User)
	}
	if _, ok := repo.lastLogins[user.ID]; !ok {
		t.Fatal("expected last login to be recorded")
	}
	if len(sessions.generated) != 1 {
		t.Fatalf("expected one refresh session, got %d", len(sessions.generated))
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.UserRoleOperator {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID != sessions.generated[0] {
		t.Fatal("jti must match the stored session access id")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedUser(t, repo, "operator@plant.example", "s3cret-pass", enums.UserRoleOperator, true)

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "operator@plant.example", "not-the-password"},
		{"unknown user", "nobody@plant.example", "s3cret-pass"},
		{"empty email", "", "s3cret-pass"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), LoginRequest{Email: tc.email, Password: tc.password})
			if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeUnauthorized {
				t.Fatalf("expected unauthorized, got %v", err)
			}
		})
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedUser(t, repo, "former@plant.example", "s3cret-pass", enums.UserRoleOperator, false)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "former@plant.example",
		Password: "s3cret-pass",
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for inactive account, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	svc, _, sessions := newTestService(t)

	if err := svc.Logout(context.Background(), "access-123"); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "access-123" {
		t.Fatalf("expected revoked session, got %v", sessions.revoked)
	}

	err := svc.Logout(context.Background(), "  ")
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for blank access id, got %v", err)
	}
}
