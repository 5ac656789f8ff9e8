package application

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"travelhub/internal/users/domain"
	"travelhub/internal/users/ports"
	"travelhub/pkg/auth"
	"travelhub/pkg/errors"
	"travelhub/pkg/logger"
)

// UserUseCase handles user business logic
type UserUseCase struct {
	repo      ports.UserRepository
	publisher ports.EventPublisher
	tokens    ports.TokenIssuer
	log       *logger.Logger
	now       func() time.Time
}

// NewUserUseCase creates a new user use case
func NewUserUseCase(repo ports.UserRepository, publisher ports.EventPublisher, tokens ports.TokenIssuer, log *logger.Logger) *UserUseCase {
	return &UserUseCase{
		repo:      repo,
		publisher: publisher,
		tokens:    tokens,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RegisterInput represents the input for registering a user
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// AuthOutput is a user together with a freshly issued token
type AuthOutput struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Register creates a user account with the user role and signs it in
func (uc *UserUseCase) Register(ctx context.Context, input RegisterInput) (*AuthOutput, error) {
	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user, err := domain.NewUser(input.Username, input.Email, hash, auth.RoleUser, uc.now())
	if err != nil {
		return nil, err
	}

	// Check if email already exists; the unique index still guards the race
	existing, err := uc.repo.GetByEmail(ctx, user.Email)
	if err != nil && !errors.Is(err, errors.CodeNotFound) {
		return nil, errors.NewInternal("failed to check email existence", err)
	}
	if existing != nil {
		return nil, domain.ErrEmailExists
	}

	if err := uc.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	if uc.publisher != nil {
		if err := uc.publisher.PublishUserRegistered(ctx, user); err != nil {
			uc.log.WithContext(ctx).Error("failed to publish user registered event",
				zap.Error(err),
				zap.String("user_id", user.ID),
			)
		}
	}

	uc.log.WithContext(ctx).Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email),
	)

	return uc.signIn(user)
}

// LoginInput represents the input for logging in
type LoginInput struct {
	Email    string
	Password string
}

// Login checks credentials and issues a token. Unknown email and wrong
// password produce the same error.
func (uc *UserUseCase) Login(ctx context.Context, input LoginInput) (*AuthOutput, error) {
	user, err := uc.repo.GetByEmail(ctx, domain.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(input.Password, user.PasswordHash) {
		uc.log.WithContext(ctx).Warn("login rejected", zap.String("user_id", user.ID))
		return nil, domain.ErrInvalidCredentials
	}

	return uc.signIn(user)
}

func (uc *UserUseCase) signIn(user *domain.User) (*AuthOutput, error) {
	token, expiresAt, err := uc.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, errors.NewInternal("failed to issue token", err)
	}
	return &AuthOutput{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// GetUser retrieves a user by ID
func (uc *UserUseCase) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return uc.repo.GetByID(ctx, id)
}

// LookupIdentity returns the current role of a user for the identity resolver
func (uc *UserUseCase) LookupIdentity(ctx context.Context, userID string) (auth.Identity, error) {
	user, err := uc.repo.GetByID(ctx, userID)
	if err != nil {
		return auth.Identity{}, err
	}
	return user.Identity(), nil
}

// FindByIDs returns the users that exist among ids
func (uc *UserUseCase) FindByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	return uc.repo.GetByIDs(ctx, ids)
}

// EnsureAdmin makes sure an admin account with email exists. An existing
// account is promoted; its password is left untouched.
func (uc *UserUseCase) EnsureAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	existing, err := uc.repo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil && !errors.Is(err, errors.CodeNotFound) {
		return nil, err
	}

	if existing != nil {
		if existing.Role == auth.RoleAdmin {
			return existing, nil
		}
		existing.Role = auth.RoleAdmin
		existing.UpdatedAt = uc.now()
		if err := uc.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		uc.log.WithContext(ctx).Info("user promoted to admin", zap.String("user_id", existing.ID))
		return existing, nil
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := domain.NewUser("admin", email, hash, auth.RoleAdmin, uc.now())
	if err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	uc.log.WithContext(ctx).Info("admin account created", zap.String("user_id", user.ID))
	return user, nil
}

func hashPassword(password string) (string, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		if stderrors.Is(err, auth.ErrPasswordTooShort) {
			return "", domain.ErrPasswordTooShort
		}
		return "", errors.NewInternal("failed to hash password", err)
	}
	return hash, nil
}
