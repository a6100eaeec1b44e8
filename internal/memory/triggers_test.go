package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain verifies Triggers' periodic ticker goroutine and delayed-fire
// timers never outlive the test that started them, the same way the
// teacher's internal/mangle/engine_test.go guards its own background work.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recordingRun captures the threshold each Fire/RunNow call ran at.
type recordingRun struct {
	mu         sync.Mutex
	thresholds []float64
}

func (r *recordingRun) run(threshold float64) Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.thresholds = append(r.thresholds, threshold)
	return Result{Evaluated: 1, PromotedIDs: []string{"id-1"}}
}

func (r *recordingRun) calls() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, len(r.thresholds))
	copy(out, r.thresholds)
	return out
}

func TestFire_UsesLoweredThresholdForCloseAndLimitOnly(t *testing.T) {
	rec := &recordingRun{}
	triggers := NewTriggers(rec.run, 0.6, 0.4, time.Hour)

	triggers.Fire(TriggerPeriodic)
	triggers.Fire(TriggerSessionPause)
	triggers.Fire(TriggerAgentDecision)
	triggers.Fire(TriggerSessionClose)
	triggers.Fire(TriggerMemoryLimitReached)

	assert.Equal(t, []float64{0.6, 0.6, 0.6, 0.4, 0.4}, rec.calls())
}

func TestRunNow_FiresAtDefaultThresholdIndependentOfTimer(t *testing.T) {
	rec := &recordingRun{}
	triggers := NewTriggers(rec.run, 0.6, 0.4, time.Hour)

	result := triggers.RunNow()

	require.Equal(t, 1, result.Evaluated)
	assert.Equal(t, []float64{0.6}, rec.calls())
	assert.False(t, triggers.Enabled(), "RunNow must not start the periodic timer")
}

func TestEnableDisable_TogglesPeriodicTimer(t *testing.T) {
	rec := &recordingRun{}
	triggers := NewTriggers(rec.run, 0.6, 0.4, 10*time.Millisecond)

	assert.False(t, triggers.Enabled())
	triggers.Enable()
	assert.True(t, triggers.Enabled())

	// Enabling twice must not start a second ticker goroutine or panic on
	// the duplicate stopCh close.
	triggers.Enable()
	assert.True(t, triggers.Enabled())

	require.Eventually(t, func() bool {
		return len(rec.calls()) >= 1
	}, time.Second, 5*time.Millisecond, "periodic timer must fire at least once")

	triggers.Disable()
	assert.False(t, triggers.Enabled())

	// Disabling twice is a no-op, not a double-close panic.
	triggers.Disable()
	assert.False(t, triggers.Enabled())
}

func TestEnable_NoopWhenIntervalNonPositive(t *testing.T) {
	rec := &recordingRun{}
	triggers := NewTriggers(rec.run, 0.6, 0.4, 0)

	triggers.Enable()

	assert.False(t, triggers.Enabled(), "a non-positive interval must never start the timer")
}

func TestSetInterval_RestartsTimerWhenEnabled(t *testing.T) {
	rec := &recordingRun{}
	triggers := NewTriggers(rec.run, 0.6, 0.4, time.Hour)

	triggers.Enable()
	triggers.SetInterval(5 * time.Millisecond)
	assert.True(t, triggers.Enabled(), "changing the interval must leave an enabled timer running")

	require.Eventually(t, func() bool {
		return len(rec.calls()) >= 1
	}, time.Second, 5*time.Millisecond, "the shortened interval must fire promptly")

	triggers.Disable()
}

func TestSetInterval_LeavesDisabledTimerDisabled(t *testing.T) {
	rec := &recordingRun{}
	triggers := NewTriggers(rec.run, 0.6, 0.4, time.Hour)

	triggers.SetInterval(5 * time.Millisecond)

	assert.False(t, triggers.Enabled())
	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, rec.calls(), "a disabled trigger set must not fire just because the interval changed")
}

func TestScheduleDelayed_DebouncesBurstsIntoOneFire(t *testing.T) {
	rec := &recordingRun{}
	triggers := NewTriggers(rec.run, 0.6, 0.4, time.Hour)

	for i := 0; i < 5; i++ {
		triggers.ScheduleDelayed(TriggerSessionPause, 20*time.Millisecond)
		time.Sleep(2 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return len(rec.calls()) >= 1
	}, time.Second, 5*time.Millisecond)

	// Give any wrongly-stacked extra timers a chance to fire before asserting.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, rec.calls(), 1, "a burst of ScheduleDelayed calls must coalesce into a single fire")
}

func TestCancelDelayed_PreventsScheduledFire(t *testing.T) {
	rec := &recordingRun{}
	triggers := NewTriggers(rec.run, 0.6, 0.4, time.Hour)

	triggers.ScheduleDelayed(TriggerSessionPause, 10*time.Millisecond)
	triggers.CancelDelayed()

	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, rec.calls(), "cancelling a delayed trigger must prevent it from ever firing")

	// Cancelling with nothing scheduled must not panic.
	triggers.CancelDelayed()
}
