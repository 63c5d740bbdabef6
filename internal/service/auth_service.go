package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/quickchat/dm-service/internal/domain"
	"github.com/quickchat/dm-service/internal/security"
)

type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ListOthers(ctx context.Context, userID int64) ([]domain.User, error)
	UpdateProfile(ctx context.Context, id int64, fullName, profilePicture, bio string) (*domain.User, error)
}

// TokenIssuer выпускает access-токен для пользователя.
type TokenIssuer interface {
	IssueToken(userID int64) (string, error)
}

type AuthService struct {
	users  UserStore
	tokens TokenIssuer
	images ImageStore
}

func NewAuthService(users UserStore, tokens TokenIssuer, images ImageStore) *AuthService {
	return &AuthService{users: users, tokens: tokens, images: images}
}

func (s *AuthService) Signup(ctx context.Context, email, fullName, password, bio string) (*domain.User, string, error) {
	hash, err := security.HashPassword(password, nil)
	if err != nil {
		return nil, "", err
	}

	u := &domain.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Bio:          bio,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, "", domain.ErrEmailTaken
		}
		return nil, "", fmt.Errorf("userStore.Create: %w", err)
	}

	token, err := s.tokens.IssueToken(u.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return u, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("userStore.GetByEmail: %w", err)
	}
	if err := security.ComparePassword(u.PasswordHash, password); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.IssueToken(u.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return u, token, nil
}

func (s *AuthService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// ListOthers — все пользователи кроме текущего, для сайдбара.
func (s *AuthService) ListOthers(ctx context.Context, userID int64) ([]domain.User, error) {
	return s.users.ListOthers(ctx, userID)
}

// UpdateProfile обновляет имя/био и, если передан data-URL, аватар.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, fullName, bio, picture string) (*domain.User, error) {
	var pictureRef string
	if picture != "" {
		ref, err := s.images.Upload(ctx, picture)
		if err != nil {
			return nil, fmt.Errorf("images.Upload: %w", err)
		}
		pictureRef = ref
	}

	u, err := s.users.UpdateProfile(ctx, userID, fullName, pictureRef, bio)
	if err != nil {
		return nil, fmt.Errorf("userStore.UpdateProfile: %w", err)
	}
	return u, nil
}
