package notification

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"mixlab/internal/domain"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 64
)

const (
	EventConnected      = "connected"
	EventPaymentUpdate  = "payment_update"
	EventBookingCreated = "booking_created"
)

// Event is pushed to every connected client.
type Event struct {
	Type      string    `json:"type"`
	Message   string    `json:"message,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub owns the set of live websocket clients. Components that publish
// events receive the hub explicitly.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	log     *zap.Logger
	now     func() time.Time
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		log:     log,
		now:     time.Now,
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues evt for every client and returns how many accepted it.
// Clients whose buffer is full are skipped.
func (h *Hub) Broadcast(evt Event) int {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = h.now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		h.log.Error("marshal event", zap.String("type", evt.Type), zap.Error(err))
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for c := range h.clients {
		select {
		case c.send <- data:
			sent++
		default:
		}
	}
	h.log.Debug("event broadcast", zap.String("type", evt.Type), zap.Int("clients", sent))
	return sent
}

// PaymentStatusChanged pushes a payment_update for b.
func (h *Hub) PaymentStatusChanged(ctx context.Context, b *domain.Booking) error {
	h.Broadcast(Event{
		Type: EventPaymentUpdate,
		Data: map[string]any{
			"bookingId":     b.BookingID,
			"status":        b.PaymentStatus,
			"paymentStatus": b.PaymentStatus,
		},
	})
	return nil
}

// NotifyBookingCreated tells admin dashboards about a new booking.
func (h *Hub) NotifyBookingCreated(ctx context.Context, b *domain.Booking) error {
	h.Broadcast(Event{
		Type: EventBookingCreated,
		Data: map[string]any{
			"bookingId":     b.BookingID,
			"serviceType":   b.ServiceType,
			"bookingDate":   b.BookingDate,
			"bookingTime":   b.BookingTime,
			"hours":         b.Hours,
			"paymentMethod": b.PaymentMethod,
			"paymentStatus": b.PaymentStatus,
		},
	})
	return nil
}

// ServeWS registers conn and runs its pumps. It blocks until the client
// disconnects.
func (h *Hub) ServeWS(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if data, err := json.Marshal(Event{Type: EventConnected, Message: "Connected to payment updates", Timestamp: h.now()}); err == nil {
		c.send <- data
	}
	h.register(c)
	h.log.Info("websocket client connected", zap.Int("clients", h.Count()))

	go h.writePump(c)
	h.readPump(c)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
		h.log.Info("websocket client disconnected", zap.Int("clients", h.Count()))
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Clients only listen; inbound frames are drained to keep pongs flowing.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
