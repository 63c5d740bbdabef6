package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/quickchat/dm-service/internal/domain"
	"github.com/quickchat/dm-service/internal/security"
	"github.com/quickchat/dm-service/internal/service"
	"github.com/quickchat/dm-service/internal/storage"
	httpmw "github.com/quickchat/dm-service/internal/transport/http/middleware"
)

type Handler struct {
	authSvc *service.AuthService
	msgSvc  *service.MessageService
}

func NewHandler(auth *service.AuthService, msg *service.MessageService) *Handler {
	return &Handler{authSvc: auth, msgSvc: msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// POST /api/auth/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if req.Email == "" || req.FullName == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "email, full name and password are required"})
		return
	}

	user, token, err := h.authSvc.Signup(r.Context(), req.Email, req.FullName, req.Password, req.Bio)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			writeJSON(w, http.StatusConflict, ErrorResponse{Error: "user already exists"})
		case errors.Is(err, security.ErrPasswordTooShort):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "password too short"})
		default:
			slog.Error("handler.Signup:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{Token: token, User: toUserItem(*user)})
}

// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "email and password are required"})
		return
	}

	user, token, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
			return
		}
		slog.Error("handler.Login:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: toUserItem(*user)})
}

// GET /api/auth/check
func (h *Handler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	user, err := h.authSvc.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "user not found"})
			return
		}
		slog.Error("handler.CheckAuth:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, toUserItem(*user))
}

// PUT /api/auth/update-profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	userID := httpmw.UserIDFromCtx(r.Context())

	user, err := h.authSvc.UpdateProfile(r.Context(), userID, req.FullName, req.Bio, req.ProfilePicture)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "user not found"})
		case errors.Is(err, storage.ErrBadImage):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid image"})
		default:
			slog.Error("handler.UpdateProfile:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, toUserItem(*user))
}

// GET /api/messages/users — сайдбар: собеседники + счётчики непрочитанного.
func (h *Handler) Sidebar(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())

	users, err := h.authSvc.ListOthers(r.Context(), userID)
	if err != nil {
		slog.Error("handler.Sidebar.ListOthers:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}
	counts, err := h.msgSvc.UnseenCounts(r.Context(), userID)
	if err != nil {
		slog.Error("handler.Sidebar.UnseenCounts:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	resp := SidebarResponse{
		Items:        lo.Map(users, func(u domain.User, _ int) UserItem { return toUserItem(u) }),
		UnseenCounts: make(map[string]int64, len(counts)),
	}
	for sender, n := range counts {
		resp.UnseenCounts[strconv.FormatInt(sender, 10)] = n
	}

	writeJSON(w, http.StatusOK, resp)
}

// GET /api/messages/{id} — переписка с пользователем id; помечает её прочитанной.
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	otherID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || otherID <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	msgs, err := h.msgSvc.OpenConversation(r.Context(), userID, otherID)
	if err != nil {
		slog.Error("handler.GetConversation:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, MessagesResponse{
		Items: lo.Map(msgs, func(m domain.Message, _ int) MessageItem { return toMessageItem(m) }),
	})
}

// POST /api/messages/send/{id}
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	receiverID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || receiverID <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	msg, err := h.msgSvc.Send(r.Context(), userID, receiverID, req.Text, req.Image)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyMessage):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "message must have text or image"})
		case errors.Is(err, domain.ErrMessageTooLong):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "message too long"})
		case errors.Is(err, storage.ErrBadImage):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid image"})
		default:
			slog.Error("handler.SendMessage:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, toMessageItem(*msg))
}

// PUT /api/messages/mark/{id}
func (h *Handler) MarkSeen(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "id")
	if messageID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing message id"})
		return
	}

	if err := h.msgSvc.MarkSeen(r.Context(), messageID); err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "message not found"})
			return
		}
		slog.Error("handler.MarkSeen:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "seen"})
}

func toUserItem(u domain.User) UserItem {
	return UserItem{
		ID:             strconv.FormatInt(u.ID, 10),
		Email:          u.Email,
		FullName:       u.FullName,
		ProfilePicture: u.ProfilePicture,
		Bio:            u.Bio,
		CreatedAt:      u.CreatedAt,
	}
}

func toMessageItem(m domain.Message) MessageItem {
	return MessageItem{
		ID:         m.ID,
		SenderID:   strconv.FormatInt(m.SenderID, 10),
		ReceiverID: strconv.FormatInt(m.ReceiverID, 10),
		Text:       m.Text,
		Image:      m.Image,
		Seen:       m.Seen,
		CreatedAt:  m.CreatedAt,
	}
}
