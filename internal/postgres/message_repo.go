package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickchat/dm-service/internal/domain"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, senderID, receiverID int64, text, image string) (*domain.Message, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO messages (sender_id, receiver_id, text, image)
		VALUES ($1, $2, $3, $4)
		RETURNING id, sender_id, receiver_id, text, image, seen, created_at
	`, senderID, receiverID, text, image)

	var m domain.Message
	if err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Text, &m.Image, &m.Seen, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// Conversation — сообщения в обе стороны, по created_at по возрастанию.
func (r *MessageRepository) Conversation(ctx context.Context, userA, userB int64) ([]domain.Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, sender_id, receiver_id, text, image, seen, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC, id ASC
	`, userA, userB)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Text, &m.Image, &m.Seen, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkSeen идемпотентен: повторный вызов по уже прочитанному — no-op.
func (r *MessageRepository) MarkSeen(ctx context.Context, messageID string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE messages SET seen = TRUE WHERE id = $1`, messageID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (r *MessageRepository) MarkAllSeen(ctx context.Context, senderID, receiverID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE messages SET seen = TRUE
		WHERE sender_id = $1 AND receiver_id = $2 AND NOT seen
	`, senderID, receiverID)
	return err
}

func (r *MessageRepository) CountUnseen(ctx context.Context, receiverID int64) (map[int64]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT sender_id, COUNT(*)
		FROM messages
		WHERE receiver_id = $1 AND NOT seen
		GROUP BY sender_id
	`, receiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int64)
	for rows.Next() {
		var sender, n int64
		if err := rows.Scan(&sender, &n); err != nil {
			return nil, err
		}
		counts[sender] = n
	}
	return counts, rows.Err()
}
