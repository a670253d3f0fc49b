package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/20lawsobk/maxbooster7.5-sub011/internal/sim"
)

// frame is one message on the live feed.
type frame struct {
	Kind    string      `json:"kind"` // event, progress, snapshot, complete
	RunID   string      `json:"run_id"`
	Payload interface{} `json:"payload"`
}

// completeSummary is the final frame; the full result stays behind the
// results endpoint since it can carry years of snapshots.
type completeSummary struct {
	Completed  bool         `json:"completed"`
	Days       int          `json:"days"`
	Verdict    string       `json:"verdict"`
	KPIs       sim.KPIBlock `json:"kpis"`
	FinalUsers int64        `json:"final_users"`
	MRR        float64      `json:"mrr"`
}

type wsClient struct {
	send chan frame
}

// Hub fans simulation observer callbacks out to websocket clients, one
// subscription set per run id. Slow clients lose frames rather than
// backpressuring the engine, and raw event frames are rate-limited so a
// fast-mode run cannot saturate the feed.
type Hub struct {
	log      zerolog.Logger
	upgrader websocket.Upgrader
	limiter  *rate.Limiter

	mu      sync.RWMutex
	clients map[string]map[*wsClient]bool
}

// NewHub builds a hub throttling event frames to ratePerSec with the given
// burst.
func NewHub(log zerolog.Logger, ratePerSec, burst int) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
		clients: make(map[string]map[*wsClient]bool),
	}
}

// Observers returns the observer set the engine calls; hooks are cheap and
// never block.
func (h *Hub) Observers(runID string) sim.Observers {
	return sim.Observers{
		OnEvent: func(ev sim.SimulationEvent) {
			if !h.limiter.Allow() {
				return
			}
			h.broadcast(runID, frame{Kind: "event", RunID: runID, Payload: ev})
		},
		OnSnapshot: func(s sim.Snapshot) {
			h.broadcast(runID, frame{Kind: "snapshot", RunID: runID, Payload: s})
		},
		OnProgress: func(p sim.Progress) {
			h.broadcast(runID, frame{Kind: "progress", RunID: runID, Payload: p})
		},
		OnComplete: func(res *sim.SimulationResult) {
			h.broadcast(runID, frame{Kind: "complete", RunID: runID, Payload: completeSummary{
				Completed:  res.Completed,
				Days:       res.SimulatedDays,
				Verdict:    res.Verdict(),
				KPIs:       res.KPIs,
				FinalUsers: res.FinalMetrics.Users.Total,
				MRR:        res.FinalMetrics.Revenue.MRR,
			}})
		},
	}
}

func (h *Hub) broadcast(runID string, fr frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[runID] {
		select {
		case c.send <- fr:
		default:
			// slow client, drop the frame
		}
	}
}

func (h *Hub) addClient(runID string, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[runID] == nil {
		h.clients[runID] = make(map[*wsClient]bool)
	}
	h.clients[runID][c] = true
}

func (h *Hub) removeClient(runID string, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[runID]; ok && set[c] {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, runID)
		}
		close(c.send)
	}
}

// ServeLive upgrades the request and streams the run's frames until the
// client goes away.
func (h *Hub) ServeLive(w http.ResponseWriter, r *http.Request, runID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Str("run_id", runID).Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &wsClient{send: make(chan frame, 64)}
	h.addClient(runID, c)
	WebsocketClients.Inc()
	defer func() {
		h.removeClient(runID, c)
		WebsocketClients.Dec()
		conn.Close()
	}()

	// Reader drains client messages; its only job is noticing the close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}()

	for fr := range c.send {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(fr); err != nil {
			return
		}
	}
}
