package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"beatsync/auth"
	"beatsync/domain"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetUserById(ctx context.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

type MockTokenManager struct {
	mock.Mock
}

func (m *MockTokenManager) Generate(userId string) string {
	args := m.Called(userId)
	return args.String(0)
}

func (m *MockTokenManager) Verify(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

func TestService_VerifyToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid token resolves the user", func(t *testing.T) {
		repo := &MockUserRepo{}
		tm := &MockTokenManager{}
		tm.On("Verify", "good-token").Return("u1", nil)
		repo.On("GetUserById", ctx, "u1").Return(domain.User{Id: "u1", Username: "maarvin", DisplayName: "Maarvin"}, nil)

		svc := auth.NewService(repo, tm)
		user, err := svc.VerifyToken(ctx, "good-token")

		assert.NoError(t, err)
		assert.Equal(t, "Maarvin", user.DisplayName)
	})

	t.Run("bad token never hits the repo", func(t *testing.T) {
		repo := &MockUserRepo{}
		tm := &MockTokenManager{}
		tm.On("Verify", "bad-token").Return("", domain.ErrCorruptedToken)

		svc := auth.NewService(repo, tm)
		_, err := svc.VerifyToken(ctx, "bad-token")

		assert.ErrorIs(t, err, domain.ErrCorruptedToken)
		repo.AssertNotCalled(t, "GetUserById", mock.Anything, mock.Anything)
	})

	t.Run("deleted account", func(t *testing.T) {
		repo := &MockUserRepo{}
		tm := &MockTokenManager{}
		tm.On("Verify", "stale-token").Return("gone", nil)
		repo.On("GetUserById", ctx, "gone").Return(domain.User{}, domain.ErrUserNotFound)

		svc := auth.NewService(repo, tm)
		_, err := svc.VerifyToken(ctx, "stale-token")

		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}
