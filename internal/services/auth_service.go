package services

import (
	"context"
	"errors"
	"fmt"

	"inventory/internal/auth"
	"inventory/internal/models"
	"inventory/internal/repositories"
	"inventory/pkg/logger"
)

// AuthService handles registration, login and profile lookups.
type AuthService struct {
	userRepo repositories.UserRepository
	issuer   *auth.Issuer
	// dummy is compared against when the email is unknown so that both
	// login failures cost one bcrypt comparison.
	dummy *models.User
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, issuer *auth.Issuer) *AuthService {
	dummy := &models.User{}
	if err := dummy.SetPassword("timing-equaliser"); err != nil {
		logger.Warn("failed to prepare dummy password hash", "err", err)
	}
	return &AuthService{
		userRepo: userRepo,
		issuer:   issuer,
		dummy:    dummy,
	}
}

// RegisterInput is the data accepted on registration.
type RegisterInput struct {
	Username string      `json:"username" validate:"required,min=3,max=50"`
	Email    string      `json:"email" validate:"required,email,max=100"`
	Password string      `json:"password" validate:"required,min=6,max=72"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=user admin"`
}

// Session is an issued token together with the user it belongs to.
type Session struct {
	Token string
	User  *models.User
}

// Register creates a user with a hashed password and issues a token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if err := s.ensureUnique(ctx, in.Username, in.Email); err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, models.NewValidationError("role", "role must be one of user, admin")
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Role:     role,
	}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, &ConflictError{Field: "username or email"}
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	token, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return &Session{Token: token, User: user}, nil
}

func (s *AuthService) ensureUnique(ctx context.Context, username, email string) error {
	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return &ConflictError{Field: "username"}
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to check username: %w", err)
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return &ConflictError{Field: "email"}
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}
	return nil
}

// Login checks the credentials and issues a token. Unknown email and wrong
// password both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		s.dummy.CheckPassword(password)
		return nil, ErrInvalidCredentials
	}

	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

// Profile returns the stored user for id.
func (s *AuthService) Profile(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return user, nil
}

// EnsureAdmin promotes the user with the given email to admin, creating the
// account first when it does not exist. An existing password is left as is.
func (s *AuthService) EnsureAdmin(ctx context.Context, in RegisterInput) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		if user.Role != models.RoleAdmin {
			if err := s.userRepo.UpdateRole(ctx, user.ID, models.RoleAdmin); err != nil {
				return nil, fmt.Errorf("failed to promote user: %w", err)
			}
			user.Role = models.RoleAdmin
			logger.Info("user promoted to admin", "user_id", user.ID)
		}
		return user, nil
	case errors.Is(err, repositories.ErrNotFound):
		in.Role = models.RoleAdmin
		session, err := s.Register(ctx, in)
		if err != nil {
			return nil, err
		}
		return session.User, nil
	default:
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
}
