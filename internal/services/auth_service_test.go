package services_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"inventory/internal/auth"
	"inventory/internal/models"
	"inventory/internal/repositories"
	"inventory/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(user)
	if args.Error(0) == nil && user.ID == "" {
		user.ID = "generated-id"
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id string, role models.Role) error {
	args := m.Called(id, role)
	return args.Error(0)
}

const testJWTSecret = "test_jwt_secret"

func TestMain(m *testing.M) {
	models.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func newAuthService(t *testing.T, repo *MockUserRepository) (*services.AuthService, *auth.Issuer) {
	t.Helper()
	issuer, err := auth.NewIssuer(testJWTSecret, time.Hour)
	require.NoError(t, err)
	return services.NewAuthService(repo, issuer), issuer
}

func hashedUser(t *testing.T, id, email, password string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{ID: id, Username: "testuser", Email: email, Role: role}
	require.NoError(t, u.SetPassword(password))
	return u
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService, issuer := newAuthService(t, mockRepo)

	in := services.RegisterInput{Username: "testuser", Email: "test@example.com", Password: "password123"}

	mockRepo.On("GetByUsername", in.Username).Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("GetByEmail", in.Email).Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", mock.MatchedBy(func(u *models.User) bool {
		return u.Username == in.Username && u.Password != in.Password && u.CheckPassword(in.Password)
	})).Return(nil).Once()

	session, err := authService.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, session.User.Role)
	assert.NotEqual(t, in.Password, session.User.Password)

	claims, err := issuer.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.Subject)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterAdmin(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, _ := newAuthService(t, mockRepo)

	in := services.RegisterInput{Username: "alice", Email: "alice@example.com", Password: "password123", Role: models.RoleAdmin}
	mockRepo.On("GetByUsername", "alice").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("GetByEmail", "alice@example.com").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	session, err := authService.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, session.User.Role)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterConflicts(t *testing.T) {
	ctx := context.Background()
	in := services.RegisterInput{Username: "testuser", Email: "test@example.com", Password: "password123"}

	t.Run("username taken", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService, _ := newAuthService(t, mockRepo)
		mockRepo.On("GetByUsername", in.Username).Return(&models.User{ID: "1"}, nil).Once()

		session, err := authService.Register(ctx, in)
		assert.Nil(t, session)
		assert.ErrorIs(t, err, services.ErrConflict)
		assert.Contains(t, err.Error(), "username already taken")
		mockRepo.AssertNotCalled(t, "Create", mock.Anything)
	})

	t.Run("email registered", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService, _ := newAuthService(t, mockRepo)
		mockRepo.On("GetByUsername", in.Username).Return(nil, repositories.ErrNotFound).Once()
		mockRepo.On("GetByEmail", in.Email).Return(&models.User{ID: "1"}, nil).Once()

		session, err := authService.Register(ctx, in)
		assert.Nil(t, session)
		assert.ErrorIs(t, err, services.ErrConflict)
		assert.Contains(t, err.Error(), "email already registered")
		mockRepo.AssertNotCalled(t, "Create", mock.Anything)
	})

	t.Run("unique index race", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService, _ := newAuthService(t, mockRepo)
		mockRepo.On("GetByUsername", in.Username).Return(nil, repositories.ErrNotFound).Once()
		mockRepo.On("GetByEmail", in.Email).Return(nil, repositories.ErrNotFound).Once()
		mockRepo.On("Create", mock.Anything).Return(repositories.ErrDuplicate).Once()

		session, err := authService.Register(ctx, in)
		assert.Nil(t, session)
		assert.ErrorIs(t, err, services.ErrConflict)
	})

	t.Run("store failure is not a conflict", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService, _ := newAuthService(t, mockRepo)
		mockRepo.On("GetByUsername", in.Username).Return(nil, errors.New("connection refused")).Once()

		_, err := authService.Register(ctx, in)
		require.Error(t, err)
		assert.NotErrorIs(t, err, services.ErrConflict)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService, issuer := newAuthService(t, mockRepo)
	user := hashedUser(t, "user-123", "test@example.com", "password123", models.RoleAdmin)

	// Successful login
	mockRepo.On("GetByEmail", user.Email).Return(user, nil).Once()
	session, err := authService.Login(ctx, "test@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user, session.User)

	claims, err := issuer.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	// Wrong password
	mockRepo.On("GetByEmail", user.Email).Return(user, nil).Once()
	_, wrongPasswordErr := authService.Login(ctx, "test@example.com", "wrongpassword")

	// Unknown email
	mockRepo.On("GetByEmail", "nobody@example.com").Return(nil, repositories.ErrNotFound).Once()
	_, unknownEmailErr := authService.Login(ctx, "nobody@example.com", "password123")

	assert.ErrorIs(t, wrongPasswordErr, services.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmailErr, services.ErrInvalidCredentials)
	assert.Equal(t, wrongPasswordErr.Error(), unknownEmailErr.Error())
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Profile(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, _ := newAuthService(t, mockRepo)

	mockRepo.On("GetByID", "user-123").Return(&models.User{ID: "user-123", Role: models.RoleUser}, nil).Once()
	user, err := authService.Profile(context.Background(), "user-123")
	require.NoError(t, err)
	assert.Equal(t, "user-123", user.ID)

	mockRepo.On("GetByID", "gone").Return(nil, repositories.ErrNotFound).Once()
	_, err = authService.Profile(context.Background(), "gone")
	assert.ErrorIs(t, err, services.ErrNotFound)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()
	in := services.RegisterInput{Username: "root", Email: "root@example.com", Password: "password123"}

	t.Run("promotes existing user", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService, _ := newAuthService(t, mockRepo)
		existing := &models.User{ID: "user-1", Email: in.Email, Role: models.RoleUser}
		mockRepo.On("GetByEmail", in.Email).Return(existing, nil).Once()
		mockRepo.On("UpdateRole", "user-1", models.RoleAdmin).Return(nil).Once()

		user, err := authService.EnsureAdmin(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, user.Role)
		mockRepo.AssertExpectations(t)
	})

	t.Run("leaves existing admin alone", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService, _ := newAuthService(t, mockRepo)
		mockRepo.On("GetByEmail", in.Email).Return(&models.User{ID: "user-1", Role: models.RoleAdmin}, nil).Once()

		_, err := authService.EnsureAdmin(ctx, in)
		require.NoError(t, err)
		mockRepo.AssertNotCalled(t, "UpdateRole", mock.Anything, mock.Anything)
	})

	t.Run("creates missing admin", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService, _ := newAuthService(t, mockRepo)
		mockRepo.On("GetByEmail", in.Email).Return(nil, repositories.ErrNotFound).Twice()
		mockRepo.On("GetByUsername", in.Username).Return(nil, repositories.ErrNotFound).Once()
		mockRepo.On("Create", mock.MatchedBy(func(u *models.User) bool { return u.Role == models.RoleAdmin })).Return(nil).Once()

		user, err := authService.EnsureAdmin(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, user.Role)
		mockRepo.AssertExpectations(t)
	})
}
