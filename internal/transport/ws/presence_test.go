package ws

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func onlineUsers(t *testing.T, ev Event) []string {
	t.Helper()
	require.Equal(t, EventOnlineUsers, ev.Event)
	p, ok := ev.Payload.(OnlineUsersPayload)
	require.True(t, ok)
	return p.Users
}

func TestPresence_BroadcastsSnapshotToEveryone(t *testing.T) {
	reg := NewRegistry()
	presence := NewPresence(reg)

	c1 := &fakeConn{userID: 1}
	c2 := &fakeConn{userID: 2}
	reg.Add(1, c1)
	reg.Add(2, c2)

	presence.OnMembershipChange()

	// снапшот получают все, включая только что подключившегося
	for _, c := range []*fakeConn{c1, c2} {
		events := c.sent()
		require.Len(t, events, 1)
		require.Equal(t, []string{"1", "2"}, onlineUsers(t, events[0]))
	}
}

func TestPresence_ExcludesDisconnected(t *testing.T) {
	reg := NewRegistry()
	presence := NewPresence(reg)

	c1 := &fakeConn{userID: 1}
	c2 := &fakeConn{userID: 2}
	reg.Add(1, c1)
	reg.Add(2, c2)
	presence.OnMembershipChange()

	require.True(t, reg.Remove(2, c2))
	presence.OnMembershipChange()

	events := c1.sent()
	require.Len(t, events, 2)
	require.Equal(t, []string{"1"}, onlineUsers(t, events[1]))
}

func TestPresence_DeadConnCleanedUpAndRebroadcast(t *testing.T) {
	reg := NewRegistry()
	presence := NewPresence(reg)

	alive := &fakeConn{userID: 1}
	dead := &fakeConn{userID: 2, failed: true}
	reg.Add(1, alive)
	reg.Add(2, dead)

	presence.OnMembershipChange()

	// мёртвое соединение убрано из реестра
	_, ok := reg.Lookup(2)
	require.False(t, ok)
	require.Equal(t, []int64{1}, reg.Snapshot())

	// живое получило и первый раунд, и повторный без умершего
	events := alive.sent()
	require.Len(t, events, 2)
	require.Equal(t, []string{"1", "2"}, onlineUsers(t, events[0]))
	require.Equal(t, []string{"1"}, onlineUsers(t, events[1]))
}
