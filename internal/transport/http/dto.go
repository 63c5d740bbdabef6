package http

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

type SignupRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
	Bio      string `json:"bio"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	FullName       string `json:"fullName"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profilePicture"` // data-URL, опционально
}

type AuthResponse struct {
	Token string   `json:"token"`
	User  UserItem `json:"user"`
}

type UserItem struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"fullName"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// SidebarResponse: список собеседников + бейджи непрочитанного по sender id.
type SidebarResponse struct {
	Items        []UserItem       `json:"items"`
	UnseenCounts map[string]int64 `json:"unseenCounts"`
}

type SendMessageRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"` // data-URL, опционально
}

type MessageItem struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	Seen       bool      `json:"seen"`
	CreatedAt  time.Time `json:"createdAt"`
}

type MessagesResponse struct {
	Items []MessageItem `json:"items"`
}
