// Package ws streams village snapshots to WebSocket observers.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/napolitain/village-sim/internal/game"
	"github.com/napolitain/village-sim/internal/village"
)

const writeWait = 5 * time.Second

// Message is one frame sent to observers
type Message struct {
	Type     string           `json:"type"` // always "SNAPSHOT"
	Seq      uint64           `json:"seq"`
	Snapshot village.Snapshot `json:"snapshot"`
}

// Server serves /ws and /snapshot for a session
type Server struct {
	session *game.Session
	logger  zerolog.Logger

	upgrader websocket.Upgrader
	// per connection write pacing
	limit rate.Limit
	burst int

	observers atomic.Int64
}

// NewServer creates an observer server. Each connection sends at most limit
// frames per second with the given burst; intermediate snapshots are dropped.
func NewServer(session *game.Session, limit rate.Limit, burst int, logger zerolog.Logger) *Server {
	return &Server{
		session: session,
		logger:  logger.With().Str("component", "ws").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		limit: limit,
		burst: burst,
	}
}

// Handler returns a mux with both endpoints
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.WSHandler())
	mux.HandleFunc("/snapshot", s.SnapshotHandler())
	return mux
}

// Observers returns the number of connected observers
func (s *Server) Observers() int {
	return int(s.observers.Load())
}

// SnapshotHandler serves the current snapshot as JSON
func (s *Server) SnapshotHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(rw).Encode(s.session.Snapshot()); err != nil {
			s.logger.Debug().Err(err).Msg("Snapshot write failed")
		}
	}
}

// WSHandler upgrades the connection, sends the current snapshot and then
// every later one, pacing writes with a per connection limiter
func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		s.observers.Add(1)
		defer s.observers.Add(-1)
		s.logger.Debug().Str("remote", r.RemoteAddr).Msg("Observer connected")

		updates, unsubscribe := s.session.Subscribe()
		defer unsubscribe()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Reader: observers send nothing we act on; a read error means the
		// peer went away.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		limiter := rate.NewLimiter(s.limit, s.burst)
		var seq uint64
		send := func(snap village.Snapshot) error {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			seq++
			b, err := json.Marshal(Message{Type: "SNAPSHOT", Seq: seq, Snapshot: snap})
			if err != nil {
				return err
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			return conn.WriteMessage(websocket.TextMessage, b)
		}

		if err := send(s.session.Snapshot()); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
					time.Now().Add(time.Second))
				return
			case snap, ok := <-updates:
				if !ok {
					return
				}
				if err := send(snap); err != nil {
					s.logger.Debug().Err(err).Msg("Observer write failed")
					return
				}
			}
		}
	}
}
