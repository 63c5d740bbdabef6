package ws

import (
	"log/slog"
	"strconv"

	"github.com/samber/lo"
)

// Presence рассылает снапшот онлайна всем живым соединениям.
type Presence struct {
	reg *Registry
}

func NewPresence(reg *Registry) *Presence {
	return &Presence{reg: reg}
}

// OnMembershipChange вызывается после каждого Add/Remove, который реально
// изменил членство. Рассылка best-effort: упавший push не прерывает остальных
// и не возвращается вызывающему; мёртвое соединение убирается из реестра
// (с защитой от гонки с реконнектом), после чего раунд повторяется.
func (p *Presence) OnMembershipChange() {
	for {
		ev := Event{
			Event: EventOnlineUsers,
			Payload: OnlineUsersPayload{
				Users: lo.Map(p.reg.Snapshot(), func(id int64, _ int) string {
					return strconv.FormatInt(id, 10)
				}),
			},
		}

		var dead []entry
		for _, e := range p.reg.entries() {
			if err := e.conn.Send(ev); err != nil {
				slog.Warn("presence push failed", "user", e.userID, "err", err)
				dead = append(dead, e)
			}
		}
		if len(dead) == 0 {
			return
		}

		changed := false
		for _, e := range dead {
			if p.reg.Remove(e.userID, e.conn) {
				changed = true
			}
		}
		if !changed {
			return
		}
		// карта уменьшилась — следующий раунд разошлёт уже новый снапшот
	}
}
