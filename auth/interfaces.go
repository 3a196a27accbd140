package auth

import (
	"context"

	"beatsync/domain"
)

type UserRepo interface {
	GetUserById(ctx context.Context, id string) (domain.User, error)
}

type TokenManager interface {
	Generate(userId string) string
	Verify(token string) (string, error)
}
