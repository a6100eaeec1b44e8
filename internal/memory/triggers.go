package memory

import (
	"sync"
	"time"

	"github.com/jido-ai/memorycore/internal/logging"
)

// TriggerKind is the closed set of reasons a promotion pass can fire.
type TriggerKind string

const (
	TriggerPeriodic          TriggerKind = "periodic"
	TriggerSessionPause      TriggerKind = "session_pause"
	TriggerSessionClose      TriggerKind = "session_close"
	TriggerMemoryLimitReached TriggerKind = "memory_limit_reached"
	TriggerAgentDecision     TriggerKind = "agent_decision"
)

// RunFunc executes one promotion pass at the given threshold and returns its
// result. Triggers never constructs this itself: the owning session binds it
// to its own PendingMemories/Adapter pair.
type RunFunc func(threshold float64) Result

// Triggers owns the periodic promotion timer and the threshold used for
// each trigger kind. session_close and memory_limit_reached use a lowered
// threshold so marginal candidates are not lost when a session is ending or
// already full; periodic, session_pause, and agent_decision use the default.
type Triggers struct {
	mu sync.Mutex

	run RunFunc

	defaultThreshold      float64
	loweredThreshold      float64
	interval              time.Duration

	enabled bool
	ticker  *time.Ticker
	stopCh  chan struct{}

	delayMu    sync.Mutex
	delayTimer *time.Timer
}

// NewTriggers creates a (disabled) trigger set bound to run. Call Enable to
// start the periodic timer.
func NewTriggers(run RunFunc, defaultThreshold, loweredThreshold float64, interval time.Duration) *Triggers {
	return &Triggers{
		run:              run,
		defaultThreshold: defaultThreshold,
		loweredThreshold: loweredThreshold,
		interval:         interval,
	}
}

// thresholdFor returns the threshold a given trigger kind promotes at.
func (t *Triggers) thresholdFor(kind TriggerKind) float64 {
	switch kind {
	case TriggerSessionClose, TriggerMemoryLimitReached:
		return t.loweredThreshold
	default:
		return t.defaultThreshold
	}
}

// Enable starts the periodic promotion timer, if not already running.
func (t *Triggers) Enable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.enabled || t.interval <= 0 {
		return
	}
	t.enabled = true
	t.ticker = time.NewTicker(t.interval)
	t.stopCh = make(chan struct{})
	ticker := t.ticker
	stopCh := t.stopCh
	go func() {
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				t.Fire(TriggerPeriodic)
			}
		}
	}()
}

// Disable stops the periodic timer. Fire/RunNow still work while disabled.
func (t *Triggers) Disable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	t.enabled = false
	t.ticker.Stop()
	close(t.stopCh)
}

// Enabled reports whether the periodic timer is currently running.
func (t *Triggers) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// SetInterval changes the periodic timer's period, restarting it if enabled.
func (t *Triggers) SetInterval(interval time.Duration) {
	t.mu.Lock()
	wasEnabled := t.enabled
	t.interval = interval
	t.mu.Unlock()

	if wasEnabled {
		t.Disable()
		t.Enable()
	}
}

// Fire runs one promotion pass for kind, at kind's threshold.
func (t *Triggers) Fire(kind TriggerKind) Result {
	threshold := t.thresholdFor(kind)
	result := t.run(threshold)
	logging.Get(logging.CategoryMemory).Debug("promotion trigger fired: kind=%s evaluated=%d promoted=%d", kind, result.Evaluated, len(result.PromotedIDs))
	return result
}

// RunNow runs an immediate, manually requested promotion pass at the
// default threshold, independent of whether the periodic timer is enabled.
func (t *Triggers) RunNow() Result {
	return t.Fire(TriggerAgentDecision)
}

// ScheduleDelayed arranges for kind to fire after delay, debounced: a call
// while a delayed fire is already pending cancels and reschedules it rather
// than stacking two timers. Used for session_pause, where a burst of
// activity should coalesce into one promotion pass after things settle.
func (t *Triggers) ScheduleDelayed(kind TriggerKind, delay time.Duration) {
	t.delayMu.Lock()
	defer t.delayMu.Unlock()
	if t.delayTimer != nil {
		t.delayTimer.Stop()
	}
	t.delayTimer = time.AfterFunc(delay, func() { t.Fire(kind) })
}

// CancelDelayed cancels a pending ScheduleDelayed call, if any.
func (t *Triggers) CancelDelayed() {
	t.delayMu.Lock()
	defer t.delayMu.Unlock()
	if t.delayTimer != nil {
		t.delayTimer.Stop()
		t.delayTimer = nil
	}
}
