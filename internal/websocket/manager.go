package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"notes-server/internal/domain"

	"github.com/rs/zerolog"
)

type ClientMessage struct {
	Client  *Client
	Message []byte
}

// Manager tracks live connections per user and fans note events out to
// every connection of the note's owner.
type Manager struct {
	clients        map[string]*Client
	userIndex      map[string]map[string]bool
	clientsMutex   sync.RWMutex
	Register       chan *Client
	Unregister     chan *Client
	HandleMessage  chan *ClientMessage
	maxConnPerUser int
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
	maxMessageSize int64
	logger         zerolog.Logger
	done           chan struct{}
}

type Options struct {
	MaxConnPerUser int
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
}

func NewManager(opts Options, logger zerolog.Logger) *Manager {
	return &Manager{
		clients:        make(map[string]*Client),
		userIndex:      make(map[string]map[string]bool),
		Register:       make(chan *Client),
		Unregister:     make(chan *Client),
		HandleMessage:  make(chan *ClientMessage),
		maxConnPerUser: opts.MaxConnPerUser,
		writeWait:      opts.WriteWait,
		pongWait:       opts.PongWait,
		pingPeriod:     opts.PingPeriod,
		maxMessageSize: opts.MaxMessageSize,
		logger:         logger.With().Str("component", "websocket").Logger(),
		done:           make(chan struct{}),
	}
}

// Run serves the register, unregister and inbound message channels until
// ctx is cancelled, then closes every remaining client.
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case client := <-m.Register:
			m.registerClient(client)

		case client := <-m.Unregister:
			m.unregisterClient(client)

		case clientMsg := <-m.HandleMessage:
			m.processMessage(clientMsg)

		case <-ctx.Done():
			close(m.done)
			m.closeAll()
			return
		}
	}
}

// Add hands a new client to the run loop. It reports false once the manager
// has stopped.
func (m *Manager) Add(client *Client) bool {
	select {
	case m.Register <- client:
		return true
	case <-m.done:
		return false
	}
}

func (m *Manager) remove(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
	}
}

func (m *Manager) deliver(msg *ClientMessage) {
	select {
	case m.HandleMessage <- msg:
	case <-m.done:
	}
}

func (m *Manager) registerClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if m.maxConnPerUser > 0 && len(m.userIndex[client.UserID]) >= m.maxConnPerUser {
		m.logger.Warn().Str("user", client.UserID).Msg("max connections reached")
		close(client.Send)
		return
	}

	if m.userIndex[client.UserID] == nil {
		m.userIndex[client.UserID] = make(map[string]bool)
	}

	m.clients[client.ID] = client
	m.userIndex[client.UserID][client.ID] = true

	m.logger.Debug().
		Str("client", client.ID).
		Str("user", client.UserID).
		Str("device", client.DeviceID).
		Msg("client registered")
}

func (m *Manager) unregisterClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	m.removeLocked(client)
}

func (m *Manager) removeLocked(client *Client) {
	if _, ok := m.clients[client.ID]; !ok {
		return
	}

	delete(m.clients, client.ID)
	delete(m.userIndex[client.UserID], client.ID)
	if len(m.userIndex[client.UserID]) == 0 {
		delete(m.userIndex, client.UserID)
	}

	close(client.Send)
	m.logger.Debug().Str("client", client.ID).Msg("client unregistered")
}

func (m *Manager) closeAll() {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	for _, client := range m.clients {
		m.removeLocked(client)
	}
}

func (m *Manager) processMessage(clientMsg *ClientMessage) {
	var msg Message
	if err := json.Unmarshal(clientMsg.Message, &msg); err != nil {
		m.logger.Debug().Err(err).Str("client", clientMsg.Client.ID).Msg("malformed message")
		m.reply(clientMsg.Client, TypeError, &ErrorPayload{Message: "malformed message"})
		return
	}

	switch msg.Type {
	case TypePing:
		m.reply(clientMsg.Client, TypePong, nil)
	default:
		m.logger.Debug().Str("type", string(msg.Type)).Msg("unknown message type")
		m.reply(clientMsg.Client, TypeError, &ErrorPayload{Message: "unknown message type"})
	}
}

func (m *Manager) reply(client *Client, msgType MessageType, payload interface{}) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to build reply")
		return
	}
	if err := m.SendToClient(client.ID, msg); err != nil {
		m.logger.Error().Err(err).Msg("failed to send reply")
	}
}

// NotifyNote publishes a note change to the owner's connections, except
// those of the device the change came from.
func (m *Manager) NotifyNote(userID, originDeviceID string, event domain.NoteEvent, note *domain.Note) {
	payload := &NotePayload{NoteID: note.ID}
	if event != domain.NoteDeleted {
		payload.Note = note
	}

	msg, err := NewMessage(MessageType(event), payload)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to build note event")
		return
	}

	if err := m.BroadcastToUser(userID, msg, originDeviceID); err != nil {
		m.logger.Error().Err(err).Str("user", userID).Msg("failed to broadcast note event")
	}
}

func (m *Manager) BroadcastToUser(userID string, message *Message, excludeDeviceID string) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	for clientID := range m.userIndex[userID] {
		client := m.clients[clientID]
		if excludeDeviceID != "" && client.DeviceID == excludeDeviceID {
			continue
		}
		select {
		case client.Send <- messageBytes:
		default:
			m.logger.Warn().Str("client", clientID).Msg("send buffer full, closing connection")
			go m.remove(client)
		}
	}

	return nil
}

func (m *Manager) SendToClient(clientID string, message *Message) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	client, exists := m.clients[clientID]
	if !exists {
		return nil
	}

	select {
	case client.Send <- messageBytes:
	default:
		m.logger.Warn().Str("client", clientID).Msg("send buffer full")
	}

	return nil
}

func (m *Manager) GetUserConnections(userID string) int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	return len(m.userIndex[userID])
}
