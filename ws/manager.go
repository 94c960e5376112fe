package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"dronemarket_backend/internal/events"
	"dronemarket_backend/internal/logger"
	"dronemarket_backend/internal/metrics"
)

// Message - то, что получает браузер
type Message struct {
	Event      string         `json:"event"`
	OccurredAt time.Time      `json:"occurredAt"`
	Data       map[string]any `json:"data,omitempty"`
}

// Hub держит websocket-соединения по пользователям и рассылает им доменные события.
// Один пользователь может быть подключен с нескольких вкладок.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex

	allowedOrigins map[string]bool
}

func NewHub(allowedOrigins []string) *Hub {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &Hub{
		clients:        make(map[string]map[*Client]struct{}),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		done:           make(chan struct{}),
		allowedOrigins: origins,
	}
}

// Run обслуживает регистрацию до отмены ctx, затем закрывает все соединения
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
			h.mu.Unlock()
			metrics.WSConnections.Inc()
			logger.Debug("ws client registered", "user_id", client.userID)

		case client := <-h.unregister:
			h.remove(client)

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for userID, set := range h.clients {
				for client := range set {
					close(client.send)
					metrics.WSConnections.Dec()
				}
				delete(h.clients, userID)
			}
			h.mu.Unlock()
			logger.Info("ws hub stopped")
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	close(client.send)
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
	metrics.WSConnections.Dec()
	logger.Debug("ws client unregistered", "user_id", client.userID)
}

// join / leave не блокируются после остановки хаба
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish - events.Publisher: доставка адресатам события, которые сейчас онлайн
func (h *Hub) Publish(ctx context.Context, ev events.Event) error {
	if len(ev.Recipients) == 0 {
		return nil
	}
	payload, err := json.Marshal(Message{Event: ev.Name, OccurredAt: ev.OccurredAt, Data: ev.Data})
	if err != nil {
		return err
	}

	delivered := 0
	for _, r := range ev.Recipients {
		delivered += h.SendToUser(r.UserID, payload)
	}
	if delivered > 0 {
		logger.CtxDebug(ctx, "ws event delivered", "event", ev.Name, "connections", delivered)
	}
	return nil
}

// SendToUser кладет сообщение во все соединения пользователя; медленные клиенты отключаются
func (h *Hub) SendToUser(userID string, payload []byte) int {
	if userID == "" {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
			sent++
		default:
			go h.leave(client)
			logger.Warn("ws client dropped: send buffer full", "user_id", userID)
		}
	}
	return sent
}

// ClientCount возвращает количество открытых соединений
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// IsConnected проверяет, подключен ли пользователь
func (h *Hub) IsConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}
