package domain

import "time"

// Message неизменяемо после создания; мутирует только флаг seen (false -> true).
type Message struct {
	ID         string    `db:"id"`
	SenderID   int64     `db:"sender_id"`
	ReceiverID int64     `db:"receiver_id"`
	Text       string    `db:"text"`
	Image      string    `db:"image"`
	Seen       bool      `db:"seen"`
	CreatedAt  time.Time `db:"created_at"`
}
