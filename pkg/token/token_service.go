package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"

	"gorm.io/gorm"

	"recipebook/domain"
	"recipebook/entities"
	"recipebook/pkg/user"
)

type (
	// TokenService issues and resolves the opaque bearer credential. A token
	// is bound one-to-one to a user and does not expire; logging in again
	// hands back the existing key instead of minting a new one.
	TokenService interface {
		Issue(ctx context.Context, req domain.TokenRequest) (domain.TokenResponse, error)
		Resolve(ctx context.Context, key string) (*entities.User, error)
	}

	tokenService struct {
		tokenRepository TokenRepository
		userService     user.UserService
	}
)

func NewTokenService(tokenRepository TokenRepository, userService user.UserService) TokenService {
	return &tokenService{
		tokenRepository: tokenRepository,
		userService:     userService,
	}
}

func (s *tokenService) Issue(ctx context.Context, req domain.TokenRequest) (domain.TokenResponse, error) {
	authedUser, err := s.userService.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return domain.TokenResponse{}, err
	}

	existing, err := s.tokenRepository.GetTokenByUserID(ctx, authedUser.ID)
	if err == nil {
		return domain.TokenResponse{Token: existing.Key}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.TokenResponse{}, err
	}

	key, err := generateKey()
	if err != nil {
		return domain.TokenResponse{}, err
	}

	token := &entities.AuthToken{
		UserID: authedUser.ID,
		Key:    key,
	}
	if err := s.tokenRepository.CreateToken(ctx, token); err != nil {
		return domain.TokenResponse{}, err
	}

	return domain.TokenResponse{Token: token.Key}, nil
}

func (s *tokenService) Resolve(ctx context.Context, key string) (*entities.User, error) {
	token, err := s.tokenRepository.GetTokenByKey(ctx, key)
	if err != nil {
		return nil, domain.ErrTokenNotFound
	}
	if token.User == nil || !token.User.IsActive {
		return nil, domain.ErrUserNotAllowed
	}
	return token.User, nil
}

func generateKey() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
