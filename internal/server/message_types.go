package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

const (
	// Client to server messages
	MessageTypeHello       MessageType = "hello"
	MessageTypeListLobbies MessageType = "list_lobbies"
	MessageTypeCreateLobby MessageType = "create_lobby"
	MessageTypeJoinLobby   MessageType = "join_lobby"
	MessageTypeLeaveLobby  MessageType = "leave_lobby"
	MessageTypeAddBot      MessageType = "add_bot"
	MessageTypeRemoveBot   MessageType = "remove_bot"
	MessageTypeStartGame   MessageType = "start_game"
	MessageTypeMove        MessageType = "move"
	MessageTypeReady       MessageType = "ready"

	// Server to client messages
	MessageTypeWelcome      MessageType = "welcome"
	MessageTypeLobbyList    MessageType = "lobby_list"
	MessageTypeLobbyUpdated MessageType = "lobby_updated"
	MessageTypeLobbyLeft    MessageType = "lobby_left"
	MessageTypeLobbyClosed  MessageType = "lobby_closed"
	MessageTypeGameState    MessageType = "game_state"
	MessageTypeGameWon      MessageType = "game_won"
	MessageTypeError        MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
