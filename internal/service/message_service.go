package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quickchat/dm-service/internal/domain"
)

// MessageStore — мост к хранилищу сообщений. Core не делает ретраев:
// потеря сообщения должна быть видна вызывающему, а не проглочена.
type MessageStore interface {
	Create(ctx context.Context, senderID, receiverID int64, text, image string) (*domain.Message, error)
	Conversation(ctx context.Context, userA, userB int64) ([]domain.Message, error)
	MarkSeen(ctx context.Context, messageID string) error
	MarkAllSeen(ctx context.Context, senderID, receiverID int64) error
	CountUnseen(ctx context.Context, receiverID int64) (map[int64]int64, error)
}

// LivePusher доставляет сообщение в живое соединение получателя.
// Реализация сама чистит реестр при ошибке доставки; наверх она не поднимается.
type LivePusher interface {
	PushNewMessage(receiverID int64, m *domain.Message) bool
}

// ImageStore кладёт картинку из data-URL и возвращает публичную ссылку.
type ImageStore interface {
	Upload(ctx context.Context, dataURL string) (string, error)
}

type SendStats interface {
	MessageSent()
}

type MessageService struct {
	store  MessageStore
	pusher LivePusher
	images ImageStore
	stats  SendStats

	maxTextLen int
}

func NewMessageService(store MessageStore, pusher LivePusher, images ImageStore, stats SendStats) *MessageService {
	return &MessageService{
		store:      store,
		pusher:     pusher,
		images:     images,
		stats:      stats,
		maxTextLen: 4000,
	}
}

// Send сохраняет сообщение и пушит его получателю, если тот онлайн.
// Успех персистентности — и есть завершение отправки: сообщение возвращается
// отправителю независимо от исхода live-доставки.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID int64, text, image string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" && image == "" {
		return nil, domain.ErrEmptyMessage
	}
	if len(text) > s.maxTextLen {
		return nil, domain.ErrMessageTooLong
	}

	var imageRef string
	if image != "" {
		ref, err := s.images.Upload(ctx, image)
		if err != nil {
			return nil, fmt.Errorf("images.Upload: %w", err)
		}
		imageRef = ref
	}

	msg, err := s.store.Create(ctx, senderID, receiverID, text, imageRef)
	if err != nil {
		return nil, fmt.Errorf("messageStore.Create: %w", err)
	}
	if s.stats != nil {
		s.stats.MessageSent()
	}

	// доставка строго после сохранения; получатель офлайн — сообщение
	// всплывёт через CountUnseen при следующем заходе
	if s.pusher == nil || !s.pusher.PushNewMessage(receiverID, msg) {
		slog.Debug("receiver offline, message left unseen", "msg", msg.ID, "receiver", receiverID)
	}

	return msg, nil
}

// OpenConversation возвращает переписку двух пользователей и помечает
// прочитанными все сообщения от собеседника (получатель открыл тред).
func (s *MessageService) OpenConversation(ctx context.Context, userID, otherID int64) ([]domain.Message, error) {
	msgs, err := s.store.Conversation(ctx, userID, otherID)
	if err != nil {
		return nil, fmt.Errorf("messageStore.Conversation: %w", err)
	}
	if err := s.store.MarkAllSeen(ctx, otherID, userID); err != nil {
		return nil, fmt.Errorf("messageStore.MarkAllSeen: %w", err)
	}
	return msgs, nil
}

// MarkSeen — идемпотентный переход seen: false -> true.
func (s *MessageService) MarkSeen(ctx context.Context, messageID string) error {
	return s.store.MarkSeen(ctx, messageID)
}

// UnseenCounts — бейджи сайдбара: senderID -> количество непрочитанных.
func (s *MessageService) UnseenCounts(ctx context.Context, receiverID int64) (map[int64]int64, error) {
	return s.store.CountUnseen(ctx, receiverID)
}
