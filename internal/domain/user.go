package domain

import "time"

type User struct {
	ID             int64     `db:"id"`
	Email          string    `db:"email"`
	FullName       string    `db:"full_name"`
	PasswordHash   string    `db:"password_hash"`
	ProfilePicture string    `db:"profile_picture"`
	Bio            string    `db:"bio"`
	CreatedAt      time.Time `db:"created_at"`
}
