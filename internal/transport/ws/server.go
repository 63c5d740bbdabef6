package ws

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quickchat/dm-service/internal/domain"
)

// TokenParser достаёт user id из access-токена рукопожатия.
type TokenParser interface {
	UserIDFromToken(token string) (int64, error)
}

// Stats — счётчики живых соединений и live-доставок.
type Stats interface {
	WSConnected()
	WSDisconnected()
	MessageDelivered()
}

type Server struct {
	upgrader websocket.Upgrader
	reg      *Registry
	presence *Presence
	tokens   TokenParser
	stats    Stats

	pingEvery time.Duration
}

func NewServer(reg *Registry, presence *Presence, tokens TokenParser, stats Stats) *Server {
	return &Server{
		reg:      reg,
		presence: presence,
		tokens:   tokens,
		stats:    stats,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// WS endpoint: GET /ws?token=...
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	uid, err := s.tokens.UserIDFromToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту при ошибке рукопожатия
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWSConn(conn, uid)
	if s.stats != nil {
		s.stats.WSConnected()
	}
	slog.Info("ws connected", "user", uid)

	// last-wins: старое соединение того же пользователя вытесняется и
	// закрывается транспортом, реестр его больше не адресует.
	if replaced := s.reg.Add(uid, c); replaced != nil {
		_ = replaced.Close()
		// состав онлайна не изменился — полный broadcast не нужен,
		// но новое соединение должно получить актуальный снапшот
		if err := s.sendOnlineUsers(c); err != nil {
			slog.Warn("ws send initial state failed", "user", uid, "err", err)
		}
	} else {
		s.presence.OnMembershipChange()
	}

	go s.writeLoop(c)
	s.readLoop(c)

	if s.reg.Remove(uid, c) {
		s.presence.OnMembershipChange()
	}
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "user", uid, "err", err)
	}
	if s.stats != nil {
		s.stats.WSDisconnected()
	}
	slog.Info("ws disconnected", "user", uid)
}

// PushNewMessage доставляет сообщение получателю, если тот онлайн.
// Ошибка доставки никогда не возвращается вызывающему: сообщение уже
// сохранено, мёртвое соединение убираем из реестра и едем дальше.
func (s *Server) PushNewMessage(receiverID int64, m *domain.Message) bool {
	c, ok := s.reg.Lookup(receiverID)
	if !ok {
		return false
	}
	if err := c.Send(Event{Event: EventNewMessage, Payload: newMessagePayload(m)}); err != nil {
		slog.Warn("newMessage push failed", "receiver", receiverID, "msg", m.ID, "err", err)
		if s.reg.Remove(receiverID, c) {
			s.presence.OnMembershipChange()
		}
		_ = c.Close()
		return false
	}
	if s.stats != nil {
		s.stats.MessageDelivered()
	}
	return true
}

func (s *Server) sendOnlineUsers(c Conn) error {
	users := s.reg.Snapshot()
	items := make([]string, 0, len(users))
	for _, id := range users {
		items = append(items, strconv.FormatInt(id, 10))
	}
	return c.Send(Event{Event: EventOnlineUsers, Payload: OnlineUsersPayload{Users: items}})
}

func newMessagePayload(m *domain.Message) NewMessagePayload {
	return NewMessagePayload{
		ID:         m.ID,
		SenderID:   strconv.FormatInt(m.SenderID, 10),
		ReceiverID: strconv.FormatInt(m.ReceiverID, 10),
		Text:       m.Text,
		Image:      m.Image,
		Seen:       m.Seen,
		CreatedAt:  m.CreatedAt,
	}
}

// readLoop только держит соединение живым; команды клиента идут по HTTP.
func (s *Server) readLoop(c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-c.closed:
			return
		}
	}
}

type wsConn struct {
	conn      *websocket.Conn
	userID    int64
	sendMu    chan struct{} // сериализует записи: одно соединение — один писатель
	closed    chan struct{}
	closeOnce sync.Once
}

func newWSConn(c *websocket.Conn, userID int64) *wsConn {
	return &wsConn{
		conn:   c,
		userID: userID,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(ev Event) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(ev)
}

// Close зовут несколько сторон: readLoop при обрыве, PushNewMessage при
// ошибке доставки, HandleWS при вытеснении старого соединения.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })

	return c.conn.Close()
}

func (c *wsConn) UserID() int64 { return c.userID }
