package ws

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/quickchat/dm-service/internal/domain"
)

func newTestMessage(sender, receiver int64, text string) *domain.Message {
	return &domain.Message{
		ID:         "m-1",
		SenderID:   sender,
		ReceiverID: receiver,
		Text:       text,
		CreatedAt:  time.Now(),
	}
}

func TestServer_PushNewMessage_Online(t *testing.T) {
	reg := NewRegistry()
	srv := NewServer(reg, NewPresence(reg), nil, nil)

	c := &fakeConn{userID: 2}
	reg.Add(2, c)

	require.True(t, srv.PushNewMessage(2, newTestMessage(1, 2, "hi")))

	events := c.sent()
	require.Len(t, events, 1)
	require.Equal(t, EventNewMessage, events[0].Event)

	p, ok := events[0].Payload.(NewMessagePayload)
	require.True(t, ok)
	require.Equal(t, "1", p.SenderID)
	require.Equal(t, "2", p.ReceiverID)
	require.Equal(t, "hi", p.Text)
	require.False(t, p.Seen)
}

func TestServer_PushNewMessage_Offline(t *testing.T) {
	reg := NewRegistry()
	srv := NewServer(reg, NewPresence(reg), nil, nil)

	require.False(t, srv.PushNewMessage(2, newTestMessage(1, 2, "hi")))
}

func TestServer_PushNewMessage_DeadConnCleanedUp(t *testing.T) {
	reg := NewRegistry()
	srv := NewServer(reg, NewPresence(reg), nil, nil)

	dead := &fakeConn{userID: 2, failed: true}
	reg.Add(2, dead)

	// ошибка доставки не фатальна: запись вычищается, соединение закрывается
	require.False(t, srv.PushNewMessage(2, newTestMessage(1, 2, "hi")))
	_, ok := reg.Lookup(2)
	require.False(t, ok)
	require.True(t, dead.closed)
}

// staticTokens принимает сам user id в качестве токена.
type staticTokens struct{}

func (staticTokens) UserIDFromToken(token string) (int64, error) {
	return strconv.ParseInt(token, 10, 64)
}

type wireEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func dialWS(t *testing.T, ts *httptest.Server, userID int64) *websocket.Conn {
	t.Helper()

	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/?token=" + strconv.FormatInt(userID, 10)
	conn, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readOnlineUsers(t *testing.T, conn *websocket.Conn) []string {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev wireEvent
	require.NoError(t, conn.ReadJSON(&ev))
	require.Equal(t, EventOnlineUsers, ev.Event)

	var p OnlineUsersPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &p))
	return p.Users
}

func TestServer_HandleWS_ReconnectReplacesOldConn(t *testing.T) {
	reg := NewRegistry()
	srv := NewServer(reg, NewPresence(reg), staticTokens{}, nil)
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	defer ts.Close()

	observer := dialWS(t, ts, 2)
	require.Equal(t, []string{"2"}, readOnlineUsers(t, observer))

	first := dialWS(t, ts, 1)
	require.Equal(t, []string{"1", "2"}, readOnlineUsers(t, first))
	require.Equal(t, []string{"1", "2"}, readOnlineUsers(t, observer))

	// второе соединение того же пользователя вытесняет первое
	second := dialWS(t, ts, 1)

	// и сразу получает актуальный снапшот онлайна
	require.Equal(t, []string{"1", "2"}, readOnlineUsers(t, second))

	// вытесненному соединению сервер закрывает сокет
	first.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := first.ReadMessage()
	require.Error(t, err)

	// состав онлайна не менялся, поэтому остальным ничего не рассылается
	observer.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, _, err = observer.ReadMessage()
	var ne net.Error
	require.ErrorAs(t, err, &ne)
	require.True(t, ne.Timeout())

	// реестр адресует только новое соединение
	require.Equal(t, []int64{1, 2}, reg.Snapshot())
}

func TestServer_HandleWS_PlainHTTPRequest(t *testing.T) {
	reg := NewRegistry()
	srv := NewServer(reg, NewPresence(reg), staticTokens{}, nil)
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/?token=1")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// ответ при неудачном рукопожатии пишет только Upgrade
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "Bad Request\n", string(body))
}

func TestWSConn_CloseConcurrent(t *testing.T) {
	up := websocket.Upgrader{}
	serverConns := make(chan *websocket.Conn, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- conn
	}))
	defer ts.Close()

	// Close дёргают одновременно readLoop, вытеснение и неудачный push;
	// повторное закрытие не должно ронять процесс
	for i := 0; i < 100; i++ {
		client, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
		require.NoError(t, err)
		resp.Body.Close()

		c := newWSConn(<-serverConns, 1)

		start := make(chan struct{})
		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_ = c.Close()
			}()
		}
		close(start)
		wg.Wait()

		select {
		case <-c.closed:
		default:
			t.Fatal("closed channel must be closed after Close")
		}
		client.Close()
	}
}
