package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickchat/dm-service/internal/domain"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (email, full_name, password_hash, profile_picture, bio)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query, u.Email, u.FullName, u.PasswordHash, u.ProfilePicture, u.Bio).
		Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx,
		`SELECT id, email, full_name, password_hash, profile_picture, bio, created_at
		 FROM users WHERE email=$1`, email)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx,
		`SELECT id, email, full_name, password_hash, profile_picture, bio, created_at
		 FROM users WHERE id=$1`, id)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.ProfilePicture, &u.Bio, &u.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ListOthers — все пользователи кроме заданного, свежие сверху.
func (r *UserRepository) ListOthers(ctx context.Context, userID int64) ([]domain.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, email, full_name, password_hash, profile_picture, bio, created_at
		 FROM users WHERE id <> $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.ProfilePicture, &u.Bio, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateProfile: пустой profilePicture оставляет старый аватар.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, fullName, profilePicture, bio string) (*domain.User, error) {
	query := `
		UPDATE users
		SET full_name = COALESCE(NULLIF($2, ''), full_name),
		    profile_picture = COALESCE(NULLIF($3, ''), profile_picture),
		    bio = $4
		WHERE id = $1
		RETURNING id, email, full_name, password_hash, profile_picture, bio, created_at`

	var u domain.User
	err := r.db.QueryRow(ctx, query, id, fullName, profilePicture, bio).
		Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.ProfilePicture, &u.Bio, &u.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
