package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelhub/internal/users/domain"
	"travelhub/pkg/auth"
	"travelhub/pkg/errors"
	"travelhub/pkg/logger"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	users   map[string]*domain.User
	byEmail map[string]*domain.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:   make(map[string]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, ok := m.byEmail[user.Email]; ok {
		return domain.ErrEmailExists
	}
	m.users[user.ID] = user
	m.byEmail[user.Email] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, domain.NewUserNotFound(id)
	}
	return user, nil
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	var out []*domain.User
	for _, id := range ids {
		if user, ok := m.users[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, errors.NewNotFound("user", email)
	}
	return user, nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	m.users[user.ID] = user
	m.byEmail[user.Email] = user
	return nil
}

// MockEventPublisher records registered users
type MockEventPublisher struct {
	registered []string
}

func (m *MockEventPublisher) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	m.registered = append(m.registered, user.ID)
	return nil
}

func newUseCase() (*UserUseCase, *MockUserRepository, *MockEventPublisher, *auth.TokenService) {
	repo := NewMockUserRepository()
	publisher := &MockEventPublisher{}
	tokens := auth.NewTokenService("0123456789abcdef0123456789abcdef", time.Hour)
	return NewUserUseCase(repo, publisher, tokens, logger.NewNop()), repo, publisher, tokens
}

func TestRegister_Success(t *testing.T) {
	uc, repo, publisher, tokens := newUseCase()

	out, err := uc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "correct horse",
	})

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", out.User.Email)
	assert.Equal(t, auth.RoleUser, out.User.Role)
	assert.NotEqual(t, "correct horse", out.User.PasswordHash)
	assert.Contains(t, repo.users, out.User.ID)
	assert.Equal(t, []string{out.User.ID}, publisher.registered)

	claims, err := tokens.Verify(out.Token)
	require.NoError(t, err)
	assert.Equal(t, out.User.ID, claims.UserID)
}

func TestRegister_Rejections(t *testing.T) {
	uc, _, _, _ := newUseCase()
	_, err := uc.Register(context.Background(), RegisterInput{Username: "alice", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = uc.Register(context.Background(), RegisterInput{Username: "alice2", Email: "A@example.com", Password: "password1"})
	assert.True(t, errors.Is(err, errors.CodeConflict))

	_, err = uc.Register(context.Background(), RegisterInput{Username: "bob", Email: "b@example.com", Password: "short"})
	assert.Equal(t, domain.ErrPasswordTooShort, err)

	_, err = uc.Register(context.Background(), RegisterInput{Username: "bob", Email: "nope", Password: "password1"})
	assert.True(t, errors.Is(err, errors.CodeValidation))
}

func TestLogin(t *testing.T) {
	uc, _, _, _ := newUseCase()
	registered, err := uc.Register(context.Background(), RegisterInput{Username: "alice", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	out, err := uc.Login(context.Background(), LoginInput{Email: " A@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, out.User.ID)
	assert.NotEmpty(t, out.Token)

	_, err = uc.Login(context.Background(), LoginInput{Email: "a@example.com", Password: "wrong-password"})
	assert.Equal(t, domain.ErrInvalidCredentials, err)

	_, err = uc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "password1"})
	assert.Equal(t, domain.ErrInvalidCredentials, err)
}

func TestLookupIdentity(t *testing.T) {
	uc, _, _, _ := newUseCase()
	out, err := uc.Register(context.Background(), RegisterInput{Username: "alice", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	id, err := uc.LookupIdentity(context.Background(), out.User.ID)
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{UserID: out.User.ID, Role: auth.RoleUser}, id)

	_, err = uc.LookupIdentity(context.Background(), "missing")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestEnsureAdmin(t *testing.T) {
	uc, repo, _, _ := newUseCase()

	created, err := uc.EnsureAdmin(context.Background(), "root@example.com", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, created.Role)

	again, err := uc.EnsureAdmin(context.Background(), "root@example.com", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Len(t, repo.users, 1)

	out, err := uc.Register(context.Background(), RegisterInput{Username: "bob", Email: "bob@example.com", Password: "password1"})
	require.NoError(t, err)
	promoted, err := uc.EnsureAdmin(context.Background(), "bob@example.com", "ignored1")
	require.NoError(t, err)
	assert.Equal(t, out.User.ID, promoted.ID)
	assert.Equal(t, auth.RoleAdmin, promoted.Role)
}
