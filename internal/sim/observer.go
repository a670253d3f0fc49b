package sim

import "time"

// Logger is the narrow logging contract the engine needs. The binaries
// adapt zerolog onto it; tests usually pass the nop logger.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]interface{}) {}
func (NopLogger) Info(string, map[string]interface{})  {}
func (NopLogger) Warn(string, map[string]interface{})  {}
func (NopLogger) Error(string, map[string]interface{}) {}

// Progress is pushed to OnProgress at batch boundaries.
type Progress struct {
	Day             int     `json:"day"`
	TotalDays       int     `json:"total_days"`
	PercentComplete float64 `json:"percent_complete"`
	Users           int64   `json:"users"`
	MRR             float64 `json:"mrr"`
	State           State   `json:"state"`
}

// Observers is the explicit observer set handed in at construction. Every
// hook is optional and invoked synchronously from the run loop, so hooks
// must be fast; the websocket hub buffers on its side.
type Observers struct {
	OnEvent    func(SimulationEvent)
	OnSnapshot func(Snapshot)
	OnProgress func(Progress)
	OnComplete func(*SimulationResult)
}

// Dependencies are the optional collaborators a Simulation consumes. Zero
// values are fine: nop logger, no observers, in-memory snapshots only,
// wall-clock time.
type Dependencies struct {
	Logger        Logger
	Observers     Observers
	SnapshotStore SnapshotStore
	Now           func() time.Time
}
