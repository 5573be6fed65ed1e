package notification

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mixlab/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(zap.NewNop())
	r := gin.New()
	NewHandler(hub, nil, zap.NewNop()).RegisterRoutes(r.Group("/api/ws"))

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/payments"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var evt map[string]any
	require.NoError(t, conn.ReadJSON(&evt))
	return evt
}

func TestHub_GreetsNewClient(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)

	evt := readEvent(t, conn)
	assert.Equal(t, EventConnected, evt["type"])
	assert.Equal(t, "Connected to payment updates", evt["message"])
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestHub_PaymentUpdateReachesAllClients(t *testing.T) {
	hub, url := startHub(t)
	a := dial(t, url)
	b := dial(t, url)
	readEvent(t, a)
	readEvent(t, b)
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 10*time.Millisecond)

	booking := &domain.Booking{BookingID: "MIX-1", PaymentStatus: domain.PaymentPaid}
	require.NoError(t, hub.PaymentStatusChanged(context.Background(), booking))

	for _, conn := range []*websocket.Conn{a, b} {
		evt := readEvent(t, conn)
		assert.Equal(t, EventPaymentUpdate, evt["type"])
		data, ok := evt["data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "MIX-1", data["bookingId"])
		assert.Equal(t, "paid", data["status"])
	}
}

func TestHub_BookingCreated(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	readEvent(t, conn)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.NotifyBookingCreated(context.Background(), &domain.Booking{
		BookingID:   "MIX-2",
		ServiceType: domain.ServiceRehearsal,
		BookingDate: "2025-12-01",
		BookingTime: "14:00",
		Hours:       2,
	}))

	evt := readEvent(t, conn)
	assert.Equal(t, EventBookingCreated, evt["type"])
	data := evt["data"].(map[string]any)
	assert.Equal(t, "MIX-2", data["bookingId"])
	assert.Equal(t, "14:00", data["bookingTime"])
	assert.EqualValues(t, 2, data["hours"])
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	readEvent(t, conn)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.Broadcast(Event{Type: EventPaymentUpdate}))
}
