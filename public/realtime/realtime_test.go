package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/awion/stadion360/model"
	"github.com/awion/stadion360/public/store"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHub(t *testing.T) (*Hub, *store.Store, *httptest.Server) {
	t.Helper()

	st, err := store.NewStore(store.StoreConfig{Type: "memory"})
	require.NoError(t, err)

	hub := NewHub(st.Snapshot, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	unsubscribe := st.Subscribe(hub.Publish)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", hub.HandleWebSocket)
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		unsubscribe()
		srv.Close()
		cancel()
	})
	return hub, st, srv
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_SnapshotThenUpdates(t *testing.T) {
	hub, st, srv := setupHub(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	initial := readMessage(t, conn)
	assert.Equal(t, MessageTypeSnapshot, initial.Type)
	assert.Equal(t, 45231, initial.Payload.VisitorCount)
	assert.Equal(t, 1, hub.ConnectedClients())

	st.RaiseAlert("Gerbang 2", "Objek Mencurigakan", nil, "")

	update := readMessage(t, conn)
	assert.Equal(t, MessageTypeUpdate, update.Type)
	assert.Equal(t, string(store.OpRaiseAlert), update.Operation)
	assert.Equal(t, model.GateAlert, update.Payload.GateStatus["Gerbang 2"])
	assert.Equal(t, model.SecurityWarning, update.Payload.SecurityStatus)
}

func TestHub_PublishDoesNotBlock(t *testing.T) {
	hub := NewHub(func() model.SimulationState { return model.SimulationState{} }, nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Publish(store.OpReset, model.SimulationState{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Publish blocked without a running hub")
	}
}

func TestHub_UpdateDuringConnectIsDelivered(t *testing.T) {
	st, err := store.NewStore(store.StoreConfig{Type: "memory"})
	require.NoError(t, err)

	var once sync.Once
	snapshot := func() model.SimulationState {
		state := st.Snapshot()
		once.Do(func() { st.SetTrashLevel(99) })
		return state
	}

	gin.SetMode(gin.TestMode)
	hub := NewHub(snapshot, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)
	defer st.Subscribe(hub.Publish)()

	router := gin.New()
	router.GET("/ws", hub.HandleWebSocket)
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	initial := readMessage(t, conn)
	assert.Equal(t, MessageTypeSnapshot, initial.Type)
	assert.Equal(t, 65, initial.Payload.TrashLevel)

	update := readMessage(t, conn)
	assert.Equal(t, MessageTypeUpdate, update.Type)
	assert.Equal(t, string(store.OpSetTrashLevel), update.Operation)
	assert.Equal(t, 99, update.Payload.TrashLevel)
}
