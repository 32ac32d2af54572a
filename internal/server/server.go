package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/websocket"

	"github.com/lox/oblech/internal/lobby"
)

// Server represents the WebSocket server
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	store       *lobby.Store
	stats       *StatsCollector
	unsubscribe []func()
}

// NewServer creates a new WebSocket server over a lobby store and routes the
// events published on bus to the connections seated in each lobby.
func NewServer(addr string, store *lobby.Store, bus lobby.EventBus, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
		store:       store,
		stats:       NewStatsCollector(),
	}
	s.unsubscribe = []func(){
		bus.Subscribe(lobby.SubscriberFunc(s.onEvent)),
		bus.Subscribe(s.stats),
	}
	go s.run()
	return s
}

// Handler returns the HTTP routes wrapped in recovery and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/lobbies", s.handleLobbies)
	mux.HandleFunc("/stats", s.handleStats)

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel})),
	)
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
	)
	return recovery(cors(mux))
}

// Serve listens on the server address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting WebSocket server", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	_ = s.Stop()
	return err
}

// Stop closes every connection and stops routing events
func (s *Server) Stop() error {
	s.cancel()
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()

	return nil
}

// run handles connection lifecycle
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client connected", "player", conn.ID(), "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			_, ok := s.connections[conn]
			delete(s.connections, conn)
			total := len(s.connections)
			s.mu.Unlock()

			if ok {
				// Lobby events route back through the connection table, so
				// cleanup runs without holding s.mu.
				s.cleanup(conn)
				_ = conn.Close()
			}
			s.logger.Info("Client disconnected", "player", conn.ID(), "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

// cleanup removes a disconnected player from their lobby, aborting any game
// in progress so the remaining members are not stuck.
func (s *Server) cleanup(conn *Connection) {
	lobbyID := conn.Lobby()
	if lobbyID == "" {
		return
	}
	s.logger.Info("Cleaning up disconnected player", "player", conn.ID(), "lobby", lobbyID)

	err := s.store.Leave(lobbyID, conn.ID())
	if errors.Is(err, lobby.ErrGameInProgress) {
		if l, getErr := s.store.Get(lobbyID); getErr == nil {
			_ = l.Abort("")
		}
		err = s.store.Leave(lobbyID, conn.ID())
	}
	if err != nil {
		s.logger.Warn("Failed to remove disconnected player", "player", conn.ID(), "error", err)
	}
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s)
	select {
	case s.register <- client:
	case <-s.ctx.Done():
		_ = conn.Close()
		return
	}
	client.Start()

	go func() {
		<-client.ctx.Done()
		select {
		case s.unregister <- client:
		case <-s.ctx.Done():
		}
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// handleLobbies lists open lobbies as JSON
func (s *Server) handleLobbies(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(LobbyListData{Lobbies: s.store.List()}); err != nil {
		s.logger.Error("Failed to encode lobby list", "error", err)
	}
}

// handleStats serves the collected game statistics as JSON
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.stats.Snapshot()); err != nil {
		s.logger.Error("Failed to encode stats", "error", err)
	}
}

// Stats returns the collected game statistics.
func (s *Server) Stats() StatsSnapshot {
	return s.stats.Snapshot()
}

// onEvent fans a lobby event out to the connections it concerns.
func (s *Server) onEvent(e lobby.Event) {
	switch ev := e.(type) {
	case lobby.LobbyUpdatedEvent:
		s.broadcastToLobby(e.LobbyID(), func(*Connection) (MessageType, any) {
			return MessageTypeLobbyUpdated, ev.Info
		})
		s.broadcastLobbyList()

	case lobby.StateUpdatedEvent:
		s.broadcastToLobby(e.LobbyID(), func(c *Connection) (MessageType, any) {
			return MessageTypeGameState, GameStateData{
				LobbyID: e.LobbyID(),
				State:   NewGameView(ev.State, c.ID()),
				Event:   string(ev.Transition.Kind),
			}
		})

	case lobby.GameWonEvent:
		s.broadcastToLobby(e.LobbyID(), func(*Connection) (MessageType, any) {
			return MessageTypeGameWon, GameWonData{LobbyID: e.LobbyID(), WinnerID: ev.WinnerID, WinnerName: ev.WinnerName}
		})

	case lobby.LobbyClosedEvent:
		s.mu.RLock()
		for conn := range s.connections {
			if conn.swapLobby(e.LobbyID(), "") {
				conn.sendData(MessageTypeLobbyClosed, LobbyClosedData{LobbyID: e.LobbyID()})
			}
		}
		s.mu.RUnlock()
		s.broadcastLobbyList()
	}
}

// broadcastToLobby sends a per-connection message to everyone in a lobby
func (s *Server) broadcastToLobby(lobbyID string, build func(*Connection) (MessageType, any)) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for conn := range s.connections {
		if conn.Lobby() != lobbyID {
			continue
		}
		mt, data := build(conn)
		msg, err := NewMessage(mt, data)
		if err != nil {
			s.logger.Error("Failed to create message", "type", mt, "error", err)
			return
		}
		if err := conn.SendMessage(msg); err != nil {
			s.logger.Error("Failed to send message to client", "error", err, "player", conn.ID())
			continue
		}
		count++
	}
	s.logger.Debug("Broadcasted message to lobby", "lobby", lobbyID, "recipients", count)
}

// broadcastLobbyList pushes the lobby list to named players outside any lobby
func (s *Server) broadcastLobbyList() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var msg *Message
	for conn := range s.connections {
		if conn.Lobby() != "" || conn.Name() == "" {
			continue
		}
		if msg == nil {
			var err error
			if msg, err = NewMessage(MessageTypeLobbyList, LobbyListData{Lobbies: s.store.List()}); err != nil {
				s.logger.Error("Failed to create lobby list", "error", err)
				return
			}
		}
		_ = conn.SendMessage(msg)
	}
}

// ConnectionCount returns the number of open connections
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}
