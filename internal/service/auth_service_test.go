package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quickchat/dm-service/internal/domain"
	"github.com/quickchat/dm-service/internal/security"
)

type memUsers struct {
	users  []*domain.User
	nextID int64
}

func (s *memUsers) Create(_ context.Context, u *domain.User) error {
	for _, ex := range s.users {
		if ex.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	s.nextID++
	u.ID = s.nextID
	u.CreatedAt = time.Now()
	s.users = append(s.users, u)
	return nil
}

func (s *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *memUsers) ListOthers(_ context.Context, userID int64) ([]domain.User, error) {
	var out []domain.User
	for _, u := range s.users {
		if u.ID != userID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *memUsers) UpdateProfile(_ context.Context, id int64, fullName, profilePicture, bio string) (*domain.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			if fullName != "" {
				u.FullName = fullName
			}
			if profilePicture != "" {
				u.ProfilePicture = profilePicture
			}
			u.Bio = bio
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type staticIssuer struct{}

func (staticIssuer) IssueToken(int64) (string, error) { return "test-token", nil }

func newAuthService() (*AuthService, *memUsers) {
	users := &memUsers{}
	return NewAuthService(users, staticIssuer{}, &fakeImages{}), users
}

func TestSignup_HashesPasswordAndIssuesToken(t *testing.T) {
	svc, users := newAuthService()

	u, token, err := svc.Signup(context.Background(), "a@b.c", "Alice", "secret1", "hi")
	require.NoError(t, err)
	require.Equal(t, "test-token", token)
	require.NotEqual(t, "secret1", u.PasswordHash)
	require.NoError(t, security.ComparePassword(u.PasswordHash, "secret1"))
	require.Len(t, users.users, 1)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "a@b.c", "Alice", "secret1", "")
	require.NoError(t, err)

	_, _, err = svc.Signup(ctx, "a@b.c", "Another Alice", "secret2", "")
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestSignup_ShortPassword(t *testing.T) {
	svc, _ := newAuthService()

	_, _, err := svc.Signup(context.Background(), "a@b.c", "Alice", "123", "")
	require.ErrorIs(t, err, security.ErrPasswordTooShort)
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "a@b.c", "Alice", "secret1", "")
	require.NoError(t, err)

	u, token, err := svc.Login(ctx, "a@b.c", "secret1")
	require.NoError(t, err)
	require.Equal(t, "Alice", u.FullName)
	require.Equal(t, "test-token", token)

	_, _, err = svc.Login(ctx, "a@b.c", "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	// неизвестный email даёт ту же ошибку, без утечки существования
	_, _, err = svc.Login(ctx, "nobody@b.c", "secret1")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestUpdateProfile_WithAvatar(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	u, _, err := svc.Signup(ctx, "a@b.c", "Alice", "secret1", "")
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, u.ID, "Alice B", "new bio", "data:image/png;base64,aGk=")
	require.NoError(t, err)
	require.Equal(t, "Alice B", updated.FullName)
	require.Equal(t, "new bio", updated.Bio)
	require.Equal(t, "/uploads/img-1.png", updated.ProfilePicture)
}

func TestListOthers(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	a, _, err := svc.Signup(ctx, "a@b.c", "Alice", "secret1", "")
	require.NoError(t, err)
	_, _, err = svc.Signup(ctx, "b@b.c", "Bob", "secret1", "")
	require.NoError(t, err)

	others, err := svc.ListOthers(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, others, 1)
	require.Equal(t, "Bob", others[0].FullName)
}
