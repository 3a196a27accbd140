package auth

import (
	"context"

	"beatsync/domain"
)

type service struct {
	userRepo     UserRepo
	tokenManager TokenManager
}

func NewService(userRepo UserRepo, tokenManager TokenManager) *service {
	return &service{userRepo: userRepo, tokenManager: tokenManager}
}

// VerifyToken resolves a session token to the user it belongs to.
func (as *service) VerifyToken(ctx context.Context, token string) (domain.User, error) {
	id, err := as.tokenManager.Verify(token)
	if err != nil {
		return domain.User{}, err
	}

	return as.userRepo.GetUserById(ctx, id)
}
