package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBus_DeliversUntilCancelled(t *testing.T) {
	ctx := context.Background()
	bus := NewLocalBus()

	var got []Change
	cancel, err := bus.Subscribe(ctx, func(c Change) { got = append(got, c) })
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, Change{Collection: "songs", Op: OpCreate, ID: "s1"}))
	cancel()
	require.NoError(t, bus.Publish(ctx, Change{Collection: "songs", Op: OpDelete, ID: "s1"}))

	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].ID)
	assert.False(t, got[0].At.IsZero())
}

func TestRedisBus_RoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	bus := NewRedisBus(rdb, "")

	received := make(chan Change, 1)
	cancel, err := bus.Subscribe(ctx, func(c Change) { received <- c })
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, bus.Publish(ctx, Change{Collection: "participations", Op: OpBatch, Origin: "node-a"}))

	select {
	case c := <-received:
		assert.Equal(t, "participations", c.Collection)
		assert.Equal(t, OpBatch, c.Op)
		assert.Equal(t, "node-a", c.Origin)
	case <-time.After(2 * time.Second):
		t.Fatal("change not received")
	}
}

func TestHub_StreamsChanges(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	router := gin.New()
	router.GET("/ws", hub.Handler())
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	bus := NewLocalBus()
	cancel, err := hub.Attach(context.Background(), bus)
	require.NoError(t, err)
	defer cancel()
	require.NoError(t, bus.Publish(context.Background(), Change{Collection: "songs", Op: OpUpdate, ID: "s9"}))

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)

	var c Change
	require.NoError(t, json.Unmarshal(msg, &c))
	assert.Equal(t, "songs", c.Collection)
	assert.Equal(t, "s9", c.ID)

	ws.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }

func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type recordingClient struct {
	mqtt.Client
	mu        sync.Mutex
	published map[string][]byte
}

func (r *recordingClient) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published[topic] = payload.([]byte)
	return doneToken{}
}

func (r *recordingClient) Disconnect(uint) {}

func TestMQTTBridge_ForwardsToCollectionTopic(t *testing.T) {
	client := &recordingClient{published: make(map[string][]byte)}
	bridge := NewMQTTBridge(client, "")
	assert.Equal(t, "bandroom/changes/setlists", bridge.Topic("setlists"))

	bus := NewLocalBus()
	require.NoError(t, bridge.Attach(context.Background(), bus))
	defer bridge.Close()

	require.NoError(t, bus.Publish(context.Background(), Change{Collection: "setlists", Op: OpCreate, ID: "sl1"}))

	var body []byte
	require.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		var ok bool
		body, ok = client.published["bandroom/changes/setlists"]
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	var c Change
	require.NoError(t, json.Unmarshal(body, &c))
	assert.Equal(t, "sl1", c.ID)
}

// pendingToken never completes, like a QoS 1 publish queued while the client
// reconnects.
type pendingToken struct{}

func (pendingToken) Wait() bool                       { select {} }
func (pendingToken) WaitTimeout(d time.Duration) bool { time.Sleep(d); return false }
func (pendingToken) Error() error                     { return nil }
func (pendingToken) Done() <-chan struct{}            { return make(chan struct{}) }

type unreachableClient struct {
	mqtt.Client
}

func (unreachableClient) Publish(string, byte, bool, interface{}) mqtt.Token { return pendingToken{} }
func (unreachableClient) Disconnect(uint)                                   {}

func TestMQTTBridge_UnreachableBrokerDoesNotBlockPublishers(t *testing.T) {
	bridge := NewMQTTBridge(unreachableClient{}, "")
	bridge.timeout = 20 * time.Millisecond

	err := bridge.Forward(Change{Collection: "songs", Op: OpUpdate, ID: "s1"})
	assert.ErrorIs(t, err, ErrPublishTimeout)

	bus := NewLocalBus()
	require.NoError(t, bridge.Attach(context.Background(), bus))
	defer bridge.Close()

	start := time.Now()
	for i := 0; i < forwardBuffer+10; i++ {
		require.NoError(t, bus.Publish(context.Background(), Change{Collection: "songs", Op: OpUpdate, ID: "s1"}))
	}
	assert.Less(t, time.Since(start), time.Second)
}
