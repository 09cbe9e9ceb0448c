package supervisor

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/core-tools/hsu-companion-go/pkg/config"
	"github.com/core-tools/hsu-companion-go/pkg/deployment"
	"github.com/core-tools/hsu-companion-go/pkg/errors"
	"github.com/core-tools/hsu-companion-go/pkg/host"
	"github.com/core-tools/hsu-companion-go/pkg/launcher"
	"github.com/core-tools/hsu-companion-go/pkg/lifecycle"
	"github.com/core-tools/hsu-companion-go/pkg/logging"
	"github.com/core-tools/hsu-companion-go/pkg/metrics"
	"github.com/core-tools/hsu-companion-go/pkg/processregistry"
	"github.com/core-tools/hsu-companion-go/pkg/serverpath"
	"github.com/core-tools/hsu-companion-go/pkg/shutdown"
)

// LaunchFunc starts the companion at entry and returns its handle
type LaunchFunc func(ctx context.Context, entry string) (processregistry.ProcessHandle, error)

// ExecutableFunc reports the path of the running shell executable
type ExecutableFunc func() (string, error)

type Options struct {
	Config  *config.Config
	Mode    deployment.Mode
	Metrics metrics.Collector

	// Launch defaults to a launcher.Launcher built from Config.Companion
	Launch LaunchFunc

	// Executable defaults to os.Executable
	Executable ExecutableFunc
}

// Supervisor is the application context shared by the shell's setup and
// teardown hooks. It owns the registry slot, the launcher and the trigger.
type Supervisor struct {
	config     *config.Config
	mode       deployment.Mode
	launch     LaunchFunc
	executable ExecutableFunc
	registry   *processregistry.Registry
	trigger    *shutdown.Trigger
	machine    *lifecycle.Machine
	metrics    metrics.Collector
	logger     logging.Logger

	entryPath string
	mutex     sync.RWMutex
}

func New(options Options, logger logging.Logger) *Supervisor {
	cfg := options.Config
	if cfg == nil {
		cfg = config.DefaultConfig(options.Mode)
	}

	collector := options.Metrics
	if collector == nil {
		collector = metrics.NewNoopCollector()
	}

	launch := options.Launch
	if launch == nil {
		companionLauncher := launcher.NewLauncher(cfg.Companion, logger)
		launch = func(ctx context.Context, entry string) (processregistry.ProcessHandle, error) {
			handle, err := companionLauncher.Launch(ctx, entry)
			if err != nil {
				return nil, err
			}
			return handle, nil
		}
	}

	executable := options.Executable
	if executable == nil {
		executable = os.Executable
	}

	registry := processregistry.NewRegistry(logger)
	machine := lifecycle.NewMachine(logger)
	machine.SetObserver(func(from, to lifecycle.State) {
		collector.LifecycleTransition(string(from), string(to))
	})

	return &Supervisor{
		config:     cfg,
		mode:       options.Mode,
		launch:     launch,
		executable: executable,
		registry:   registry,
		trigger:    shutdown.NewTrigger(registry, cfg.Shutdown, collector, logger),
		machine:    machine,
		metrics:    collector,
		logger:     logger,
	}
}

// Setup resolves the companion entry path, launches it once and stores the
// outcome. Failures are logged and leave the supervisor in the absent state;
// the shell keeps starting either way.
func (s *Supervisor) Setup(ctx context.Context) lifecycle.State {
	if err := s.machine.Transition(lifecycle.StateStarting, "setup", nil); err != nil {
		s.logger.Warnf("Supervisor setup skipped: %v", err)
		return s.machine.Current()
	}

	s.logger.Infof("Supervisor setup, mode: %s, %s", s.mode, s.config.Summary())

	entry, err := s.resolveEntry()
	if err != nil {
		s.logger.Errorf("Companion entry path unresolvable, skipping launch: %v", err)
		return s.finishSetup(nil, err)
	}

	s.mutex.Lock()
	s.entryPath = entry
	s.mutex.Unlock()

	started := time.Now()
	handle, err := s.launch(ctx, entry)
	s.metrics.LaunchAttempt(time.Since(started), err)
	if err != nil {
		s.logger.Errorf("Failed to launch companion server, continuing without backend: %v", err)
		return s.finishSetup(nil, err)
	}

	return s.finishSetup(handle, nil)
}

func (s *Supervisor) resolveEntry() (string, error) {
	exePath, err := s.executable()
	if err != nil {
		err = errors.NewIOError("failed to locate current executable", err)
		s.metrics.PathResolution(s.mode.String(), err)
		return "", err
	}

	entry, err := serverpath.Resolve(s.mode, exePath, s.config.Layout)
	s.metrics.PathResolution(s.mode.String(), err)
	if err != nil {
		return "", err
	}

	s.logger.Debugf("Companion entry path resolved, executable: %s, entry: %s", exePath, entry)
	return entry, nil
}

func (s *Supervisor) finishSetup(handle processregistry.ProcessHandle, setupErr error) lifecycle.State {
	if err := s.registry.Store(handle); err != nil {
		s.logger.Errorf("Failed to store companion process handle: %v", err)
	}

	present := !processregistry.IsAbsent(handle)
	target := lifecycle.StateAbsent
	if present {
		target = lifecycle.StateRunning
	}
	s.metrics.CompanionUp(present)

	if err := s.machine.Transition(target, "launch", setupErr); err != nil {
		s.logger.Errorf("Unexpected lifecycle error after launch: %v", err)
	}
	return s.machine.Current()
}

// OnWindowEvent is the shell's window event hook. Only the destroyed event
// matters: it terminates the companion, at most once.
func (s *Supervisor) OnWindowEvent(ctx context.Context, event host.WindowEvent) {
	if event != host.WindowDestroyed {
		s.logger.Debugf("Ignoring window event: %s", event)
		return
	}

	outcome := s.trigger.Fire(ctx)
	s.logger.Debugf("Shutdown trigger outcome: %s", outcome)

	if err := s.machine.Transition(lifecycle.StateStopped, "window_destroyed", nil); err != nil {
		s.logger.Debugf("Window destroyed again, nothing left to stop: %v", err)
	}
}

func (s *Supervisor) State() lifecycle.State {
	return s.machine.Current()
}

func (s *Supervisor) History() []lifecycle.Transition {
	return s.machine.History()
}

func (s *Supervisor) Status() processregistry.Status {
	return s.registry.Status()
}

// EntryPath returns the resolved companion entry path, empty if unresolved
func (s *Supervisor) EntryPath() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.entryPath
}
