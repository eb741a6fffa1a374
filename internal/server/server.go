package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/lotas/tabtray/internal/applog"
	"nhooyr.io/websocket"
)

// Incoming message types sent by the extension.
const (
	MsgSnapshot   = "snapshot"
	MsgTabCreated = "tab-created"
	MsgTabRemoved = "tab-removed"
	MsgTabUpdated = "tab-updated"
	MsgSyncedTabs = "synced-tabs"
	MsgResponse   = "response"
)

// Outgoing command actions understood by the extension.
const (
	ActionActivate = "activate"
	ActionClose    = "close"
	ActionSyncTabs = "sync-tabs"
)

// IncomingMsg is a message from the extension to the tray.
type IncomingMsg struct {
	Type    string          `json:"type"`
	Tab     json.RawMessage `json:"tab,omitempty"`
	Tabs    json.RawMessage `json:"tabs,omitempty"`
	Devices json.RawMessage `json:"devices,omitempty"`
	TabID   int             `json:"tabId,omitempty"`
	// Command response fields
	ID    string `json:"id,omitempty"`
	OK    *bool  `json:"ok,omitempty"`
	Error string `json:"error,omitempty"`
}

// OutgoingMsg is a command from the tray to the extension.
type OutgoingMsg struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	TabID  int    `json:"tabId,omitempty"`
	TabIDs []int  `json:"tabIds,omitempty"`
}

// Server manages the WebSocket connection to the extension.
type Server struct {
	port    int
	msgs    chan IncomingMsg
	status  func() any
	mu      sync.Mutex
	conn    *websocket.Conn
	connCtx context.Context
}

// New creates a new Server. Port 0 means the caller manages the listener.
func New(port int) *Server {
	return &Server{
		port: port,
		msgs: make(chan IncomingMsg, 64),
	}
}

// SetStatus installs the function whose result is served as JSON on /state.
func (s *Server) SetStatus(fn func() any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = fn
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Messages returns the channel of incoming messages from the extension.
func (s *Server) Messages() <-chan IncomingMsg {
	return s.msgs
}

// Connected reports whether an extension is connected.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Send sends a command to the connected extension. It is a no-op while
// no extension is connected.
func (s *Server) Send(msg OutgoingMsg) error {
	s.mu.Lock()
	conn := s.conn
	ctx := s.connCtx
	s.mu.Unlock()

	if conn == nil {
		return nil
	}

	applog.Info("ws.send", "action", msg.Action, "id", msg.ID)
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// Router returns the bridge's HTTP routes: the WebSocket endpoint on / and
// /ws, and the tray state as JSON on /state.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	r.Handle("/ws", s.Handler())
	r.Handle("/", s.Handler())
	return r
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	fn := s.status
	s.mu.Unlock()
	if fn == nil {
		http.Error(w, "state not available", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(fn()); err != nil {
		applog.Error("http.state", err)
	}
}

// Handler returns an http.Handler that accepts WebSocket upgrades.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			applog.Error("ws.accept", err)
			return
		}

		conn.SetReadLimit(16 << 20) // 16 MB; snapshots with many tabs can be large

		ctx := r.Context()
		s.mu.Lock()
		if s.conn != nil {
			applog.Info("ws.replaced")
			s.conn.CloseNow()
		}
		s.conn = conn
		s.connCtx = ctx
		s.mu.Unlock()

		applog.Info("ws.connected", "remote", r.RemoteAddr)

		defer func() {
			s.mu.Lock()
			if s.conn == conn {
				s.conn = nil
				s.connCtx = nil
			}
			s.mu.Unlock()
			conn.CloseNow()
			applog.Info("ws.disconnected")
		}()

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var msg IncomingMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				applog.Error("ws.parse", err)
				continue
			}
			applog.Info("ws.recv", "type", msg.Type)
			select {
			case s.msgs <- msg:
			default:
				applog.Info("ws.dropped", "type", msg.Type)
			}
		}
	})
}

// ListenAndServe serves Router on 127.0.0.1 at the configured port until
// ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	applog.Info("server.start", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: s.Router()}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	return srv.ListenAndServe()
}
