package ws

import (
	"slices"
	"sync"
)

type Conn interface {
	Send(ev Event) error
	Close() error
	UserID() int64
}

// Registry хранит единственное живое соединение на пользователя.
// Весь доступ к карте только под мьютексом; наружу карта не отдаётся.
type Registry struct {
	mu    sync.RWMutex
	conns map[int64]Conn // userID -> live connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[int64]Conn)}
}

// Add регистрирует conn как живое соединение пользователя (last-wins).
// Возвращает вытесненное соединение, если оно было; закрывать его —
// забота транспорта, реестр его просто перестаёт адресовать.
func (r *Registry) Add(userID int64, c Conn) (replaced Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	replaced = r.conns[userID]
	r.conns[userID] = c
	return replaced
}

// Remove удаляет запись пользователя, только если в ней всё ещё c:
// запоздавший disconnect после реконнекта не должен снести новое соединение.
// Возвращает true, если членство реально изменилось.
func (r *Registry) Remove(userID int64, c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.conns[userID]; ok && cur == c {
		delete(r.conns, userID)
		return true
	}
	return false
}

func (r *Registry) Lookup(userID int64) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[userID]
	return c, ok
}

// Snapshot — консистентный срез онлайна, отсортирован для детерминизма.
func (r *Registry) Snapshot() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]int64, 0, len(r.conns))
	for id := range r.conns {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// entries — пары (userID, conn) одним срезом, для рассылок.
func (r *Registry) entries() []entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entry, 0, len(r.conns))
	for id, c := range r.conns {
		out = append(out, entry{userID: id, conn: c})
	}
	return out
}

type entry struct {
	userID int64
	conn   Conn
}
