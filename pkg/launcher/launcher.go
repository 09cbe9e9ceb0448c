package launcher

import (
	"context"
	"os"
	"os/exec"

	"github.com/core-tools/hsu-companion-go/pkg/errors"
	"github.com/core-tools/hsu-companion-go/pkg/logging"

	"github.com/google/uuid"
)

const DefaultInterpreter = "node"

type Config struct {
	// Interpreter is looked up on PATH unless it is already a path
	Interpreter string `yaml:"interpreter"`
}

// Launcher starts the companion server through its interpreter. A single
// attempt is made per call; there is no retry and no restart.
type Launcher struct {
	interpreter string
	lookPath    func(file string) (string, error)
	logger      logging.Logger
}

func NewLauncher(config Config, logger logging.Logger) *Launcher {
	interpreter := config.Interpreter
	if interpreter == "" {
		interpreter = DefaultInterpreter
	}

	return &Launcher{
		interpreter: interpreter,
		lookPath:    exec.LookPath,
		logger:      logger,
	}
}

// Launch starts `<interpreter> <entry>` without waiting for it. The context
// only guards the start itself; it does not bound the child's lifetime.
func (l *Launcher) Launch(ctx context.Context, entry string) (*Handle, error) {
	l.logger.Infof("Starting companion server from: %s", entry)

	if ctx.Err() != nil {
		return nil, errors.NewCancelledError("companion launch cancelled", ctx.Err()).WithContext("entry", entry)
	}

	if entry == "" {
		return nil, errors.NewValidationError("companion entry path is empty", nil)
	}

	interpreterPath, err := l.lookPath(l.interpreter)
	if err != nil {
		return nil, errors.NewNotFoundError("companion interpreter not found", err).
			WithContext("interpreter", l.interpreter)
	}

	cmd := exec.Command(interpreterPath, entry)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, errors.NewProcessError("failed to start companion process", err).
			WithContext("interpreter", interpreterPath).
			WithContext("entry", entry)
	}

	id := uuid.NewString()
	l.logger.Infof("Companion process started, id: %s, PID: %d, interpreter: %s", id, cmd.Process.Pid, interpreterPath)

	return newHandle(id, cmd, l.logger), nil
}
