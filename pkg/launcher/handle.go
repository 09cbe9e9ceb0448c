package launcher

import (
	"context"
	"os"
	"os/exec"

	"github.com/core-tools/hsu-companion-go/pkg/errors"
	"github.com/core-tools/hsu-companion-go/pkg/logging"
)

// Handle references a companion process started by Launcher
type Handle struct {
	id      string
	process *os.Process
	done    chan struct{}
	logger  logging.Logger
}

func newHandle(id string, cmd *exec.Cmd, logger logging.Logger) *Handle {
	h := &Handle{
		id:      id,
		process: cmd.Process,
		done:    make(chan struct{}),
		logger:  logger,
	}

	// Reap the child so it never lingers as a zombie. Nothing reacts to the exit.
	go func() {
		err := cmd.Wait()
		if err != nil {
			logger.Infof("Companion process exited, id: %s, PID: %d, status: %v", id, cmd.Process.Pid, err)
		} else {
			logger.Infof("Companion process exited cleanly, id: %s, PID: %d", id, cmd.Process.Pid)
		}
		close(h.done)
	}()

	return h
}

func (h *Handle) ID() string {
	return h.id
}

func (h *Handle) PID() int {
	return h.process.Pid
}

// Kill sends an unconditional kill signal, with no grace period
func (h *Handle) Kill() error {
	h.logger.Infof("Killing companion process, id: %s, PID: %d", h.id, h.process.Pid)
	if err := h.process.Kill(); err != nil {
		return errors.NewProcessError("failed to kill companion process", err).
			WithContext("id", h.id).
			WithContext("pid", h.process.Pid)
	}
	return nil
}

// Done is closed once the companion process has exited and been reaped
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the process exits or ctx is done
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return errors.NewCancelledError("wait for companion exit cancelled", ctx.Err()).
			WithContext("id", h.id).
			WithContext("pid", h.process.Pid)
	}
}
