package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/20lawsobk/maxbooster7.5-sub011/internal/sim"
)

func recvFrame(t *testing.T, ch chan frame) frame {
	t.Helper()
	select {
	case fr := <-ch:
		return fr
	case <-time.After(time.Second):
		t.Fatal("no frame received")
		return frame{}
	}
}

func TestHubObserversBroadcast(t *testing.T) {
	hub := NewHub(zerolog.Nop(), 100, 100)
	c := &wsClient{send: make(chan frame, 8)}
	hub.addClient("run1", c)

	obs := hub.Observers("run1")

	obs.OnEvent(sim.SimulationEvent{Type: "user_signup", Category: sim.CategoryUser})
	fr := recvFrame(t, c.send)
	assert.Equal(t, "event", fr.Kind)
	assert.Equal(t, "run1", fr.RunID)

	obs.OnProgress(sim.Progress{Day: 10, TotalDays: 30})
	fr = recvFrame(t, c.send)
	assert.Equal(t, "progress", fr.Kind)

	obs.OnSnapshot(sim.Snapshot{Day: 10})
	fr = recvFrame(t, c.send)
	assert.Equal(t, "snapshot", fr.Kind)

	obs.OnComplete(&sim.SimulationResult{Completed: true, SimulatedDays: 30})
	fr = recvFrame(t, c.send)
	assert.Equal(t, "complete", fr.Kind)
	summary, ok := fr.Payload.(completeSummary)
	require.True(t, ok)
	assert.True(t, summary.Completed)
	assert.Equal(t, 30, summary.Days)
	assert.Equal(t, "✅ ALL TESTS PASSED", summary.Verdict)

	// Frames for other runs never reach this client.
	hub.Observers("run2").OnProgress(sim.Progress{Day: 1})
	assert.Empty(t, c.send)
}

func TestHubRateLimitsEventFrames(t *testing.T) {
	hub := NewHub(zerolog.Nop(), 1, 1)
	c := &wsClient{send: make(chan frame, 8)}
	hub.addClient("run1", c)

	obs := hub.Observers("run1")
	obs.OnEvent(sim.SimulationEvent{Type: "a"})
	obs.OnEvent(sim.SimulationEvent{Type: "b"})

	assert.Len(t, c.send, 1, "second event inside the same second is dropped")

	// Snapshots bypass the event limiter.
	obs.OnSnapshot(sim.Snapshot{Day: 1})
	assert.Len(t, c.send, 2)
}

func TestHubDropsFramesForSlowClients(t *testing.T) {
	hub := NewHub(zerolog.Nop(), 100, 100)
	c := &wsClient{send: make(chan frame, 1)}
	hub.addClient("run1", c)

	obs := hub.Observers("run1")
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			obs.OnSnapshot(sim.Snapshot{Day: i})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
	assert.Len(t, c.send, 1)
}

func TestHubRemoveClientClosesChannel(t *testing.T) {
	hub := NewHub(zerolog.Nop(), 100, 100)
	c := &wsClient{send: make(chan frame, 1)}
	hub.addClient("run1", c)
	hub.removeClient("run1", c)

	_, open := <-c.send
	assert.False(t, open)

	// Removing twice is a no-op.
	hub.removeClient("run1", c)
}

func TestLiveFeedUnknownRun(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/simulation/live/ghost")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLiveFeedStreamsRun(t *testing.T) {
	srv, _ := newTestServer(t)

	id := startRun(t, srv, pacedRun(4242))
	waitForStatus(t, srv, id, "running")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/simulation/live/" + id
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(20*time.Second)))

	var first frame
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, id, first.RunID)
	assert.Contains(t, []string{"event", "progress", "snapshot"}, first.Kind)

	code, _ := doJSON(t, http.MethodPost, srv.URL+"/api/simulation/stop/"+id, nil)
	require.Equal(t, http.StatusOK, code)

	sawComplete := false
	for i := 0; i < 2000; i++ {
		var fr frame
		if err := conn.ReadJSON(&fr); err != nil {
			break
		}
		if fr.Kind == "complete" {
			sawComplete = true
			payload, ok := fr.Payload.(map[string]interface{})
			require.True(t, ok)
			assert.NotEmpty(t, payload["verdict"])
			break
		}
	}
	assert.True(t, sawComplete, "stop should produce a complete frame")
}
