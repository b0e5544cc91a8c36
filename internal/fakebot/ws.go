package fakebot

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// handleWS reads one text frame per chat message and answers after
// ReplyDelay.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.loggedIn(r) {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		slog.Error("ws upgrade failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	for {
		data, op, err := wsutil.ReadClientData(conn)
		if err != nil {
			return
		}
		if op != ws.OpText {
			continue
		}

		msg := strings.TrimSpace(string(data))
		reply, ok := s.Reply(msg)
		slog.Debug("fakebot message", "in", msg, "reply", reply, "silent", !ok)
		if !ok {
			continue
		}

		if s.ReplyDelay > 0 {
			select {
			case <-time.After(s.ReplyDelay):
			case <-r.Context().Done():
				return
			}
		}
		if err := wsutil.WriteServerMessage(conn, ws.OpText, []byte(reply)); err != nil {
			return
		}
	}
}
