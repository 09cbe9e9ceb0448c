package shutdown

import (
	"context"
	"time"

	"github.com/core-tools/hsu-companion-go/pkg/logging"
	"github.com/core-tools/hsu-companion-go/pkg/metrics"
	"github.com/core-tools/hsu-companion-go/pkg/processregistry"
)

// Outcome describes what a Fire call did. It is informational only.
type Outcome string

const (
	OutcomeNoHandle        Outcome = "no_handle"
	OutcomeTerminated      Outcome = "terminated"
	OutcomeTerminateFailed Outcome = "terminate_failed"
)

// Slot is the take-once source of the companion handle
type Slot interface {
	Take() (processregistry.ProcessHandle, bool)
}

// exitWaiter is implemented by handles that can confirm process exit
type exitWaiter interface {
	Wait(ctx context.Context) error
}

type Config struct {
	// ExitWaitTimeout bounds the wait for exit confirmation after the kill.
	// Zero kills without waiting.
	ExitWaitTimeout time.Duration `yaml:"exit_wait_timeout"`
}

// Trigger terminates the companion process when the main window is destroyed
type Trigger struct {
	slot    Slot
	config  Config
	metrics metrics.Collector
	logger  logging.Logger
}

func NewTrigger(slot Slot, config Config, collector metrics.Collector, logger logging.Logger) *Trigger {
	if collector == nil {
		collector = metrics.NewNoopCollector()
	}
	return &Trigger{
		slot:    slot,
		config:  config,
		metrics: collector,
		logger:  logger,
	}
}

// Fire takes the handle from the slot and kills the process. Repeated calls
// find the slot empty and do nothing. Kill failures and panics raised by the
// handle are logged and dropped.
func (t *Trigger) Fire(ctx context.Context) (outcome Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			t.logger.Errorf("Recovered panic while terminating companion process: %v", rec)
			t.metrics.Termination(string(OutcomeTerminateFailed))
			outcome = OutcomeTerminateFailed
		}
	}()

	handle, ok := t.slot.Take()
	if !ok {
		t.logger.Debugf("Shutdown trigger fired with no companion process to terminate")
		t.metrics.Termination(string(OutcomeNoHandle))
		return OutcomeNoHandle
	}

	t.metrics.CompanionUp(false)

	if err := handle.Kill(); err != nil {
		t.logger.Warnf("Failed to terminate companion process, id: %s, PID: %d, error: %v", handle.ID(), handle.PID(), err)
		t.metrics.Termination(string(OutcomeTerminateFailed))
		return OutcomeTerminateFailed
	}

	t.logger.Infof("Companion process terminated, id: %s, PID: %d", handle.ID(), handle.PID())
	t.waitForExit(ctx, handle)

	t.metrics.Termination(string(OutcomeTerminated))
	return OutcomeTerminated
}

func (t *Trigger) waitForExit(ctx context.Context, handle processregistry.ProcessHandle) {
	if t.config.ExitWaitTimeout <= 0 {
		return
	}

	waiter, ok := handle.(exitWaiter)
	if !ok {
		return
	}

	waitCtx, cancel := context.WithTimeout(ctx, t.config.ExitWaitTimeout)
	defer cancel()

	if err := waiter.Wait(waitCtx); err != nil {
		t.logger.Warnf("Companion process exit not confirmed within %v, PID: %d, error: %v",
			t.config.ExitWaitTimeout, handle.PID(), err)
		return
	}
	t.logger.Infof("Companion process exit confirmed, PID: %d", handle.PID())
}
