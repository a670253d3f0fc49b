package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/20lawsobk/maxbooster7.5-sub011/internal/report"
	"github.com/20lawsobk/maxbooster7.5-sub011/internal/sim"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
	statusLogLines    = 50
)

// SimulationHandlers serves the /api/simulation control surface.
type SimulationHandlers struct {
	registry *Registry
	renderer *report.Renderer
	log      zerolog.Logger
}

// NewSimulationHandlers wires the handlers to a registry.
func NewSimulationHandlers(registry *Registry, log zerolog.Logger) *SimulationHandlers {
	return &SimulationHandlers{
		registry: registry,
		renderer: report.NewRenderer(),
		log:      log,
	}
}

// Routes mounts every control endpoint on r.
func (h *SimulationHandlers) Routes(r chi.Router) {
	r.Get("/periods", h.GetPeriods)
	r.Get("/benchmarks", h.GetBenchmarks)
	r.Post("/start", h.StartSimulation)
	r.Post("/start-full", h.StartFullSimulation)
	r.Get("/status/{id}", h.GetStatus)
	r.Get("/metrics/{id}", h.GetMetrics)
	r.Get("/snapshots/{id}", h.GetSnapshots)
	r.Get("/events/{id}", h.GetEvents)
	r.Post("/pause/{id}", h.PauseSimulation)
	r.Post("/resume/{id}", h.ResumeSimulation)
	r.Post("/stop/{id}", h.StopSimulation)
	r.Get("/results/{id}", h.GetResults)
	r.Get("/report/{id}", h.GetReport)
	r.Post("/generate-event", h.GenerateEvent)
	r.Get("/list", h.ListSimulations)
	r.Delete("/{id}", h.DeleteSimulation)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondSimError maps engine errors onto HTTP statuses.
func respondSimError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sim.ErrConfigInvalid):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, sim.ErrInvalidTransition), errors.Is(err, sim.ErrAlreadyRunning):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, sim.ErrStoreUnavailable):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ErrTooManyRuns):
		respondError(w, http.StatusTooManyRequests, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// GetPeriods lists the selectable horizons with their real-time cost.
func (h *SimulationHandlers) GetPeriods(w http.ResponseWriter, r *http.Request) {
	presets := sim.Periods()
	periods := make([]map[string]interface{}, 0, len(presets))
	for _, p := range presets {
		periods = append(periods, map[string]interface{}{
			"name":                p.Name,
			"days":                p.Days,
			"estimated_real_time": p.EstimatedRealTime.Round(time.Second).String(),
			"description":         p.Description,
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"periods":              periods,
		"acceleration_percent": sim.AccelerationPercent,
		"real_seconds_per_day": sim.RealSecondsPerDay,
	})
}

// GetBenchmarks returns the static industry benchmarks.
func (h *SimulationHandlers) GetBenchmarks(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, sim.Benchmarks())
}

// StartRequest is the POST /start body. The enable flags default to true
// when omitted, matching product behavior.
type StartRequest struct {
	PeriodName               string  `json:"period_name"`
	InitialUsers             int64   `json:"initial_users"`
	InitialReleases          int     `json:"initial_releases"`
	SeedMoney                float64 `json:"seed_money"`
	EnableAutonomousSystems  *bool   `json:"enable_autonomous_systems"`
	EnableSystemFailures     *bool   `json:"enable_system_failures"`
	EnableMarketFluctuations *bool   `json:"enable_market_fluctuations"`
	RealTimeTracking         bool    `json:"real_time_tracking"`
	DetailedMode             bool    `json:"detailed_mode"`
	Seed                     int64   `json:"seed"`
	SnapshotIntervalDays     int     `json:"snapshot_interval_days"`
}

func orTrue(b *bool) bool {
	if b == nil {
		return true
	}
	return *b
}

func (req StartRequest) toConfig() sim.Config {
	return sim.Config{
		PeriodName:               req.PeriodName,
		InitialUsers:             req.InitialUsers,
		InitialReleases:          req.InitialReleases,
		SeedMoney:                req.SeedMoney,
		EnableAutonomousSystems:  orTrue(req.EnableAutonomousSystems),
		EnableSystemFailures:     orTrue(req.EnableSystemFailures),
		EnableMarketFluctuations: orTrue(req.EnableMarketFluctuations),
		RealTimeTracking:         req.RealTimeTracking,
		DetailedMode:             req.DetailedMode,
		Seed:                     req.Seed,
		SnapshotIntervalDays:     req.SnapshotIntervalDays,
	}
}

// StartSimulation launches one run. Unknown period names are a 400.
func (h *SimulationHandlers) StartSimulation(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.PeriodName == "" {
		respondError(w, http.StatusBadRequest, "period_name is required")
		return
	}

	handle, err := h.registry.Start(req.toConfig())
	if err != nil {
		respondSimError(w, err)
		return
	}

	cfg := handle.Current().Config()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"simulation_id":       handle.ID,
		"config":              cfg,
		"estimated_real_time": sim.EstimateRealTime(cfg.DaysToSimulate).Round(time.Second).String(),
		"message":             fmt.Sprintf("simulation %s started: %s (%d days)", handle.ID, cfg.PeriodName, cfg.DaysToSimulate),
	})
}

// StartFullSimulation runs every period preset back-to-back.
func (h *SimulationHandlers) StartFullSimulation(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
	}
	req.PeriodName = "" // the sequence sets each period itself

	handle, err := h.registry.StartFull(req.toConfig())
	if err != nil {
		respondSimError(w, err)
		return
	}

	presets := sim.Periods()
	names := make([]string, 0, len(presets))
	var totalDays int
	for _, p := range presets {
		names = append(names, p.Name)
		totalDays += p.Days
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"simulation_id":        handle.ID,
		"periods":              names,
		"estimated_total_time": sim.EstimateRealTime(totalDays).Round(time.Second).String(),
	})
}

func (h *SimulationHandlers) handleOr404(w http.ResponseWriter, r *http.Request) (*RunHandle, bool) {
	id := chi.URLParam(r, "id")
	handle, ok := h.registry.Get(id)
	if !ok {
		respondJSON(w, http.StatusNotFound, map[string]interface{}{
			"status": "not_found",
			"error":  fmt.Sprintf("simulation %s not found", id),
		})
		return nil, false
	}
	return handle, true
}

// GetStatus reports live progress plus the last log lines.
func (h *SimulationHandlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.handleOr404(w, r)
	if !ok {
		return
	}

	resp := map[string]interface{}{
		"simulation_id": handle.ID,
		"created_at":    handle.CreatedAt,
		"logs":          handle.Logs.Last(statusLogLines),
	}

	cur := handle.Current()
	if cur == nil {
		resp["status"] = "starting"
		respondJSON(w, http.StatusOK, resp)
		return
	}

	st := cur.Status()
	resp["status"] = string(st.State)
	resp["running"] = st.Running
	resp["paused"] = st.Paused
	resp["current_day"] = st.CurrentDay
	resp["total_days"] = st.TotalDays
	resp["percent_complete"] = st.PercentComplete
	resp["metrics"] = st.Metrics

	if handle.FullRun {
		idx, total := handle.SequencePosition()
		resp["period_index"] = idx
		resp["period_count"] = total
		resp["current_period"] = cur.Config().PeriodName
		if handle.Done() {
			resp["status"] = string(sim.StateCompleted)
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetMetrics returns the last completed day's metric block.
func (h *SimulationHandlers) GetMetrics(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.handleOr404(w, r)
	if !ok {
		return
	}
	cur := handle.Current()
	if cur == nil {
		respondError(w, http.StatusNotFound, "simulation has no metrics yet")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"simulation_id": handle.ID,
		"metrics":       cur.Metrics(),
		"market":        cur.MarketConditions(),
	})
}

// GetSnapshots returns the snapshot history taken so far.
func (h *SimulationHandlers) GetSnapshots(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.handleOr404(w, r)
	if !ok {
		return
	}
	cur := handle.Current()
	if cur == nil {
		respondError(w, http.StatusNotFound, "simulation has no snapshots yet")
		return
	}
	snaps := cur.Snapshots()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"simulation_id": handle.ID,
		"snapshots":     snaps,
		"count":         len(snaps),
	})
}

// GetEvents returns the run's event log, filterable by category and impact;
// limit defaults to 100 and caps at 1000.
func (h *SimulationHandlers) GetEvents(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.handleOr404(w, r)
	if !ok {
		return
	}
	cur := handle.Current()
	if cur == nil {
		respondError(w, http.StatusNotFound, "simulation has no events yet")
		return
	}

	limit := defaultEventLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}

	events := cur.Events(sim.EventFilter{
		Category: sim.EventCategory(r.URL.Query().Get("category")),
		Impact:   sim.ImpactLevel(r.URL.Query().Get("impact")),
		Limit:    limit,
	})
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"simulation_id": handle.ID,
		"events":        events,
		"count":         len(events),
	})
}

// PauseSimulation suspends the run at the next day boundary.
func (h *SimulationHandlers) PauseSimulation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "paused", func(s *sim.Simulation) error { return s.Pause() })
}

// ResumeSimulation continues a paused run.
func (h *SimulationHandlers) ResumeSimulation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "running", func(s *sim.Simulation) error { return s.Resume() })
}

// StopSimulation ends the run after the current day.
func (h *SimulationHandlers) StopSimulation(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.handleOr404(w, r)
	if !ok {
		return
	}
	if err := handle.Stop(); err != nil {
		respondSimError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"simulation_id": handle.ID,
		"status":        "stopping",
	})
}

func (h *SimulationHandlers) transition(w http.ResponseWriter, r *http.Request, target string, op func(*sim.Simulation) error) {
	handle, ok := h.handleOr404(w, r)
	if !ok {
		return
	}
	cur := handle.Current()
	if cur == nil {
		respondError(w, http.StatusConflict, "simulation not started yet")
		return
	}
	if err := op(cur); err != nil {
		respondSimError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"simulation_id": handle.ID,
		"status":        target,
	})
}

// resultView strips the full event list from a result; events stay behind
// their own endpoint.
func resultView(res *sim.SimulationResult) *sim.SimulationResult {
	view := *res
	view.Events = nil
	return &view
}

// GetResults returns the final block(s) without the event log.
func (h *SimulationHandlers) GetResults(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.handleOr404(w, r)
	if !ok {
		return
	}

	results := handle.Results()
	if len(results) == 0 {
		respondError(w, http.StatusNotFound, "simulation has not finished yet")
		return
	}

	if handle.FullRun {
		views := make([]*sim.SimulationResult, 0, len(results))
		for _, res := range results {
			views = append(views, resultView(res))
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"simulation_id": handle.ID,
			"results":       views,
			"count":         len(views),
			"done":          handle.Done(),
		})
		return
	}
	respondJSON(w, http.StatusOK, resultView(results[len(results)-1]))
}

// GetReport renders the Markdown report as a download.
func (h *SimulationHandlers) GetReport(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.handleOr404(w, r)
	if !ok {
		return
	}
	res := handle.LastResult()
	if res == nil {
		respondError(w, http.StatusNotFound, "simulation has not finished yet")
		return
	}

	md, err := h.renderer.Markdown(res)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "rendering report: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", report.Filename(handle.ID)))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(md))
}

// GenerateEventRequest is the POST /generate-event body. simulation_id may
// be omitted when exactly one run is active.
type GenerateEventRequest struct {
	SimulationID string                 `json:"simulation_id"`
	Type         string                 `json:"type"`
	Params       map[string]interface{} `json:"params"`
}

// GenerateEvent injects a manual event into a running simulation.
func (h *SimulationHandlers) GenerateEvent(w http.ResponseWriter, r *http.Request) {
	var req GenerateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Type == "" {
		respondError(w, http.StatusBadRequest, "type is required")
		return
	}

	handle, err := h.resolveTarget(req.SimulationID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if handle == nil {
		respondError(w, http.StatusNotFound, "simulation not found")
		return
	}
	cur := handle.Current()
	if cur == nil {
		respondError(w, http.StatusConflict, "simulation not started yet")
		return
	}

	ev, err := cur.InjectEvent(req.Type, req.Params)
	if err != nil {
		respondSimError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"simulation_id": handle.ID,
		"event":         ev,
	})
}

// resolveTarget finds the run to inject into: an explicit id, or the single
// active run.
func (h *SimulationHandlers) resolveTarget(id string) (*RunHandle, error) {
	if id != "" {
		handle, ok := h.registry.Get(id)
		if !ok {
			return nil, nil
		}
		return handle, nil
	}

	var active []*RunHandle
	for _, handle := range h.registry.Handles() {
		if !handle.Done() {
			active = append(active, handle)
		}
	}
	switch len(active) {
	case 0:
		return nil, errors.New("no running simulation; pass simulation_id")
	case 1:
		return active[0], nil
	default:
		return nil, fmt.Errorf("%d simulations running; pass simulation_id", len(active))
	}
}

// ListSimulations summarizes the registry.
func (h *SimulationHandlers) ListSimulations(w http.ResponseWriter, r *http.Request) {
	running, completed, total := h.registry.Counts()

	handles := h.registry.Handles()
	sims := make([]map[string]interface{}, 0, len(handles))
	for _, handle := range handles {
		entry := map[string]interface{}{
			"simulation_id": handle.ID,
			"full_run":      handle.FullRun,
			"created_at":    handle.CreatedAt,
			"done":          handle.Done(),
		}
		if cur := handle.Current(); cur != nil {
			entry["status"] = string(cur.State())
			entry["period"] = cur.Config().PeriodName
		}
		sims = append(sims, entry)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"running":     running,
		"completed":   completed,
		"total":       total,
		"simulations": sims,
	})
}

// DeleteSimulation removes a run, stopping it first if needed.
func (h *SimulationHandlers) DeleteSimulation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.registry.Delete(id) {
		respondError(w, http.StatusNotFound, fmt.Sprintf("simulation %s not found", id))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"simulation_id": id,
		"deleted":       true,
	})
}
