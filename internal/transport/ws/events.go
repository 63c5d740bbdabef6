package ws

import "time"

// Типы событий, которые сервер пушит в сокет
const (
	EventOnlineUsers = "getOnlineUsers" // полный снапшот онлайна
	EventNewMessage  = "newMessage"     // входящее сообщение для получателя
)

type Event struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// OnlineUsersPayload — отсортированный список user id (строками, как и в REST).
type OnlineUsersPayload struct {
	Users []string `json:"users"`
}

type NewMessagePayload struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	Seen       bool      `json:"seen"`
	CreatedAt  time.Time `json:"createdAt"`
}
