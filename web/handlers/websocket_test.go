package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastReachesClients(t *testing.T) {
	hub := NewWebSocketHub(nil)
	go hub.Run()
	defer hub.Stop()

	client := &MockClient{SendChan: make(chan []byte, 4)}
	hub.Register(client)

	hub.Broadcast(NewEvent(EventEntityResolved, map[string]string{"entity_id": "e-1"}))

	select {
	case data := <-client.SendChan:
		var event Event
		require.NoError(t, json.Unmarshal(data, &event))
		assert.Equal(t, EventEntityResolved, event.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := NewWebSocketHub(nil)
	go hub.Run()
	defer hub.Stop()

	// Unbuffered and never read: the hub's non-blocking send cannot find a
	// receiver, so the client must be dropped. The test must not receive
	// from this channel itself or it becomes a ready receiver.
	slow := &MockClient{SendChan: make(chan []byte)}
	hub.Register(slow)
	healthy := &MockClient{SendChan: make(chan []byte, 4)}
	hub.Register(healthy)

	hub.Broadcast(NewEvent(EventRelationUpsert, nil))

	select {
	case data := <-healthy.SendChan:
		assert.NotEmpty(t, data)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for healthy client delivery")
	}

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-slow.SendChan:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond, "slow client channel should be closed")
}

func TestHubStopClosesClients(t *testing.T) {
	hub := NewWebSocketHub(nil)
	go hub.Run()

	client := &MockClient{SendChan: make(chan []byte, 4)}
	hub.Register(client)
	hub.Stop()

	select {
	case _, ok := <-client.SendChan:
		assert.False(t, ok, "client channel should be closed on stop")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for stop to close clients")
	}
}
