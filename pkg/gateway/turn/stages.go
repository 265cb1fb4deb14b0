// Package turn orchestrates one conversation turn: transcript resolution,
// tool resolution, streamed generation, and speech synthesis, fanned out as
// a single event stream.
package turn

import (
	"sync"
	"time"

	"github.com/parley-ai/parley/pkg/core/types"
)

// EventSink receives stream events. The ndjson writer satisfies it.
type EventSink interface {
	Send(ev types.StreamEvent) error
}

// Tracker records the lifecycle of the turn's stages and emits stage and
// metrics events as they transition. Transitions are monotonic: a stage runs
// once and ends exactly once.
type Tracker struct {
	sink EventSink
	now  func() time.Time

	mu      sync.Mutex
	started map[types.Stage]time.Time
	status  map[types.Stage]types.StageStatus
}

func NewTracker(sink EventSink) *Tracker {
	t := &Tracker{
		sink:    sink,
		now:     time.Now,
		started: make(map[types.Stage]time.Time, len(types.Stages)),
		status:  make(map[types.Stage]types.StageStatus, len(types.Stages)),
	}
	for _, stage := range types.Stages {
		t.status[stage] = types.StagePending
	}
	return t
}

// Start marks a pending stage running and emits its entry event.
func (t *Tracker) Start(stage types.Stage) {
	t.mu.Lock()
	if t.status[stage] != types.StagePending {
		t.mu.Unlock()
		return
	}
	t.status[stage] = types.StageRunning
	t.started[stage] = t.now()
	t.mu.Unlock()

	_ = t.sink.Send(types.NewStageEvent(stage, types.StageRunning))
}

// Success ends a running stage and emits its completion and duration.
func (t *Tracker) Success(stage types.Stage) {
	t.finish(stage, types.StageSuccess)
}

// Fail ends a running stage as errored and emits its completion and duration.
func (t *Tracker) Fail(stage types.Stage) {
	t.finish(stage, types.StageError)
}

// Abort fails every stage that is still running. Called on fatal error paths
// so no started stage is left open when the turn ends.
func (t *Tracker) Abort() {
	for _, stage := range types.Stages {
		t.Fail(stage)
	}
}

// Status returns the stage's current status.
func (t *Tracker) Status(stage types.Stage) types.StageStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status[stage]
}

func (t *Tracker) finish(stage types.Stage, status types.StageStatus) {
	t.mu.Lock()
	if t.status[stage] != types.StageRunning {
		t.mu.Unlock()
		return
	}
	t.status[stage] = status
	duration := t.now().Sub(t.started[stage]).Milliseconds()
	t.mu.Unlock()

	_ = t.sink.Send(types.NewStageEvent(stage, status))
	_ = t.sink.Send(types.NewMetricsEvent(stage, duration))
}
