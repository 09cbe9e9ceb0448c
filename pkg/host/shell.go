package host

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/core-tools/hsu-companion-go/pkg/errors"
	"github.com/core-tools/hsu-companion-go/pkg/logging"
)

// WindowEvent is a main-window lifecycle notification from the host shell
type WindowEvent string

const (
	WindowCreated   WindowEvent = "created"
	WindowDestroyed WindowEvent = "destroyed"
)

type SetupFunc func(ctx context.Context) error

type WindowEventFunc func(ctx context.Context, event WindowEvent)

// Shell stands in for the desktop framework that owns the main window:
// it runs the setup hook, opens the window, and reports window events.
type Shell struct {
	setup         SetupFunc
	onWindowEvent WindowEventFunc
	closeOnce     sync.Once
	closed        chan struct{}
	signals       []os.Signal
	logger        logging.Logger
}

func NewShell(logger logging.Logger) *Shell {
	signals := []os.Signal{os.Interrupt, syscall.SIGTERM}
	if runtime.GOOS == "windows" {
		signals = []os.Signal{os.Interrupt}
	}

	return &Shell{
		closed:  make(chan struct{}),
		signals: signals,
		logger:  logger,
	}
}

func (s *Shell) Setup(fn SetupFunc) *Shell {
	s.setup = fn
	return s
}

func (s *Shell) OnWindowEvent(fn WindowEventFunc) *Shell {
	s.onWindowEvent = fn
	return s
}

// Close closes the main window, as a user clicking the close button would
func (s *Shell) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
}

// Run executes the setup hook, opens the main window and blocks until the
// window is closed, the shell receives a termination signal, or ctx is done.
// The destroyed event is delivered exactly once before Run returns.
func (s *Shell) Run(ctx context.Context) error {
	// Signals received during setup close the window once it is open
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, s.signals...)
	defer signal.Stop(sig)

	if s.setup != nil {
		if err := s.setup(ctx); err != nil {
			return errors.NewInternalError("shell setup failed", err)
		}
	}

	s.emit(ctx, WindowCreated)

	select {
	case <-s.closed:
		s.logger.Infof("Main window closed")
	case receivedSignal := <-sig:
		s.logger.Infof("Shell received signal: %v, closing main window", receivedSignal)
	case <-ctx.Done():
		s.logger.Infof("Shell context done, closing main window")
	}

	s.emit(context.WithoutCancel(ctx), WindowDestroyed)
	return nil
}

func (s *Shell) emit(ctx context.Context, event WindowEvent) {
	s.logger.Debugf("Main window event: %s", event)
	if s.onWindowEvent != nil {
		s.onWindowEvent(ctx, event)
	}
}
