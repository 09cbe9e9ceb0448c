package processregistry

import (
	"reflect"
	"sync"

	"github.com/core-tools/hsu-companion-go/pkg/errors"
	"github.com/core-tools/hsu-companion-go/pkg/logging"
)

// ProcessHandle is an opaque reference to a running companion process
type ProcessHandle interface {
	ID() string
	PID() int
	Kill() error
}

// Status is a point-in-time view of the registry slot
type Status struct {
	Stored  bool // Store has been called
	Taken   bool // Take has removed a handle
	Present bool // a handle is currently held
	PID     int  // PID of the held handle, 0 if none
}

// Registry holds at most one companion process handle. The slot is written
// once at startup and taken once at shutdown; after a Take it stays empty.
type Registry struct {
	handle ProcessHandle
	stored bool
	taken  bool
	logger logging.Logger
	mutex  sync.Mutex
}

func NewRegistry(logger logging.Logger) *Registry {
	return &Registry{
		logger: logger,
	}
}

// IsAbsent reports whether handle refers to no process. A typed nil pointer
// wrapped in the interface counts as absent.
func IsAbsent(handle ProcessHandle) bool {
	if handle == nil {
		return true
	}
	value := reflect.ValueOf(handle)
	switch value.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return value.IsNil()
	}
	return false
}

// Store records the outcome of the launch. A nil handle records that no
// companion is running. Only the first call has any effect.
func (r *Registry) Store(handle ProcessHandle) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.stored || r.taken {
		return errors.NewValidationError("process registry slot already written", nil).
			WithContext("taken", r.taken)
	}

	if IsAbsent(handle) {
		handle = nil
	}

	r.stored = true
	r.handle = handle

	if handle != nil {
		r.logger.Debugf("Companion process stored in registry, id: %s, PID: %d", r.handleID(handle), r.handlePID(handle))
	} else {
		r.logger.Debugf("Registry stored absence, no companion process running")
	}
	return nil
}

// Take removes and returns the handle. Every call after the first one that
// returned a handle reports false.
func (r *Registry) Take() (ProcessHandle, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.handle == nil {
		return nil, false
	}

	handle := r.handle
	r.handle = nil
	r.taken = true
	return handle, true
}

func (r *Registry) Status() Status {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	status := Status{
		Stored:  r.stored,
		Taken:   r.taken,
		Present: r.handle != nil,
	}
	if r.handle != nil {
		status.PID = r.handlePID(r.handle)
	}
	return status
}

// handleID and handlePID read from a foreign handle. A panicking handle is
// reported with zero values.
func (r *Registry) handleID(handle ProcessHandle) (id string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorf("Recovered panic while reading companion process id: %v", rec)
			id = ""
		}
	}()
	return handle.ID()
}

func (r *Registry) handlePID(handle ProcessHandle) (pid int) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorf("Recovered panic while reading companion process PID: %v", rec)
			pid = 0
		}
	}()
	return handle.PID()
}
