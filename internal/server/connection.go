package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	uuid "github.com/satori/go.uuid"

	"github.com/lox/oblech/internal/bot"
	"github.com/lox/oblech/internal/hands"
	"github.com/lox/oblech/internal/lobby"
	"github.com/lox/oblech/internal/round"
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
	ErrNotInLobby       = errors.New("not in a lobby")
	ErrAlreadyInLobby   = errors.New("already in a lobby")
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	id        string
	conn      *websocket.Conn
	send      chan *Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	server    *Server

	name    string
	lobbyID string
}

// NewConnection creates a new connection wrapper with a fresh player ID
func NewConnection(conn *websocket.Conn, logger *log.Logger, server *Server) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewV4().String()

	return &Connection{
		id:     id,
		conn:   conn,
		send:   make(chan *Message, 256),
		logger: logger.WithPrefix("conn").With("player", id),
		ctx:    ctx,
		cancel: cancel,
		server: server,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// ID returns the player ID assigned to this connection
func (c *Connection) ID() string { return c.id }

// Name returns the player name, empty until hello
func (c *Connection) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

func (c *Connection) setName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

// Lobby returns the ID of the lobby this connection sits in
func (c *Connection) Lobby() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lobbyID
}

// SetLobby associates this connection with a lobby
func (c *Connection) SetLobby(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lobbyID = id
}

// swapLobby sets the lobby only if it currently equals old.
func (c *Connection) swapLobby(old, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lobbyID != old {
		return false
	}
	c.lobbyID = id
	return true
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type)

	if msg.Type != MessageTypeHello && c.Name() == "" {
		c.sendError("not_authenticated", "Say hello first")
		return
	}

	var err error
	switch msg.Type {
	case MessageTypeHello:
		var data HelloData
		if decode(msg, &data) == nil {
			c.handleHello(data)
			return
		}
		err = errInvalidMessage

	case MessageTypeListLobbies:
		c.sendLobbyList()
		return

	case MessageTypeCreateLobby:
		err = c.handleCreateLobby()

	case MessageTypeJoinLobby:
		var data LobbyRequestData
		if err = decode(msg, &data); err == nil {
			err = c.handleJoinLobby(data)
		}

	case MessageTypeLeaveLobby:
		var data LobbyRequestData
		if err = decode(msg, &data); err == nil {
			err = c.handleLeaveLobby(data)
		}

	case MessageTypeAddBot:
		var data AddBotData
		if err = decode(msg, &data); err == nil {
			err = c.handleAddBot(data)
		}

	case MessageTypeRemoveBot:
		var data RemoveBotData
		if err = decode(msg, &data); err == nil {
			err = c.withLobby(data.LobbyID, func(l *lobby.Lobby) error {
				return l.RemoveBot(c.id, data.BotID)
			})
		}

	case MessageTypeStartGame:
		var data LobbyRequestData
		if err = decode(msg, &data); err == nil {
			err = c.withLobby(data.LobbyID, func(l *lobby.Lobby) error {
				return l.Start(c.id)
			})
		}

	case MessageTypeMove:
		var data MoveData
		if err = decode(msg, &data); err == nil {
			err = c.handleMove(data)
		}

	case MessageTypeReady:
		var data LobbyRequestData
		if err = decode(msg, &data); err == nil {
			err = c.withLobby(data.LobbyID, func(l *lobby.Lobby) error {
				return l.Ready(c.id)
			})
		}

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
		return
	}

	if errors.Is(err, errInvalidMessage) {
		c.sendError("invalid_message", "Failed to parse "+msg.Type.String()+" data")
		return
	}
	if err != nil {
		c.logger.Debug("Request rejected", "type", msg.Type, "error", err)
		c.sendError(errorCode(err), err.Error())
	}
}

var errInvalidMessage = errors.New("invalid message")

// decode unmarshals msg.Data into v. Messages without data decode to the zero value.
func decode(msg *Message, v any) error {
	if len(msg.Data) == 0 || string(msg.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return errInvalidMessage
	}
	return nil
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	c.sendData(MessageTypeError, ErrorData{Code: code, Message: message})
}

func (c *Connection) sendData(mt MessageType, data any) {
	msg, err := NewMessage(mt, data)
	if err != nil {
		c.logger.Error("Failed to create message", "type", mt, "error", err)
		return
	}
	_ = c.SendMessage(msg)
}

func (c *Connection) handleHello(data HelloData) {
	name := strings.TrimSpace(data.Name)
	if name == "" {
		c.sendError("invalid_name", "Player name required")
		return
	}
	c.setName(name)
	c.logger.Info("Player said hello", "name", name)
	c.sendData(MessageTypeWelcome, WelcomeData{PlayerID: c.id, Name: name})
}

func (c *Connection) sendLobbyList() {
	c.sendData(MessageTypeLobbyList, LobbyListData{Lobbies: c.server.store.List()})
}

func (c *Connection) handleCreateLobby() error {
	if c.Lobby() != "" {
		return ErrAlreadyInLobby
	}
	l, err := c.server.store.Create(c.id, c.Name())
	if err != nil {
		return err
	}
	c.SetLobby(l.ID())
	c.sendData(MessageTypeLobbyUpdated, l.Info())
	return nil
}

func (c *Connection) handleJoinLobby(data LobbyRequestData) error {
	if !c.swapLobby("", data.LobbyID) {
		return ErrAlreadyInLobby
	}
	if _, err := c.server.store.Join(data.LobbyID, c.id, c.Name()); err != nil {
		c.SetLobby("")
		return err
	}
	return nil
}

func (c *Connection) handleLeaveLobby(data LobbyRequestData) error {
	id := c.lobbyFor(data.LobbyID)
	if id == "" {
		return ErrNotInLobby
	}
	if err := c.server.store.Leave(id, c.id); err != nil {
		return err
	}
	c.SetLobby("")
	c.sendData(MessageTypeLobbyLeft, LobbyClosedData{LobbyID: id})
	return nil
}

func (c *Connection) handleAddBot(data AddBotData) error {
	level, err := bot.ParseLevel(data.Level)
	if err != nil {
		return err
	}
	return c.withLobby(data.LobbyID, func(l *lobby.Lobby) error {
		_, err := l.AddBot(c.id, level)
		return err
	})
}

func (c *Connection) handleMove(data MoveData) error {
	var in round.Intent
	switch strings.ToLower(data.Move) {
	case "check":
		in = round.Check()
	case "trump":
		h := hands.None
		if data.Hand != "" {
			var err error
			if h, err = hands.Parse(data.Hand); err != nil {
				return err
			}
		}
		in = round.Trump(h)
	default:
		return errInvalidMessage
	}
	return c.withLobby(data.LobbyID, func(l *lobby.Lobby) error {
		return l.Move(c.id, in)
	})
}

// lobbyFor resolves a requested lobby ID against the connection's lobby.
func (c *Connection) lobbyFor(requested string) string {
	current := c.Lobby()
	if requested == "" || requested == current {
		return current
	}
	return ""
}

func (c *Connection) withLobby(requested string, fn func(*lobby.Lobby) error) error {
	id := c.lobbyFor(requested)
	if id == "" {
		return ErrNotInLobby
	}
	l, err := c.server.store.Get(id)
	if err != nil {
		return err
	}
	return fn(l)
}
