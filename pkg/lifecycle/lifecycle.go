package lifecycle

import (
	"fmt"
	"sync"
	"time"

	"github.com/core-tools/hsu-companion-go/pkg/errors"
	"github.com/core-tools/hsu-companion-go/pkg/logging"
)

// State is the supervisor's lifecycle state
type State string

const (
	// StateIdle is the initial state before application setup
	StateIdle State = "idle"

	// StateStarting means path resolution and launch are in progress
	StateStarting State = "starting"

	// StateRunning means a companion handle is held by the registry
	StateRunning State = "running"

	// StateAbsent means setup finished without a companion process
	StateAbsent State = "absent"

	// StateStopped is terminal, reached once on window destroy
	StateStopped State = "stopped"
)

// Transition records a state change
type Transition struct {
	From      State
	To        State
	Operation string
	Timestamp time.Time
	Error     error
}

// TransitionObserver is notified after every accepted transition
type TransitionObserver func(from, to State)

// Machine validates and records supervisor state transitions
type Machine struct {
	currentState     State
	transitions      []Transition
	validTransitions map[State][]State
	observer         TransitionObserver
	mutex            sync.RWMutex
	logger           logging.Logger
}

func NewMachine(logger logging.Logger) *Machine {
	return &Machine{
		currentState: StateIdle,
		transitions:  make([]Transition, 0, 4),
		validTransitions: map[State][]State{
			StateIdle: {
				StateStarting, // setup
			},
			StateStarting: {
				StateRunning, // launch succeeded
				StateAbsent,  // resolution or launch failed
			},
			StateRunning: {
				StateStopped, // window destroyed
			},
			StateAbsent: {
				StateStopped, // window destroyed, nothing to kill
			},
		},
		logger: logger,
	}
}

// SetObserver installs a callback for accepted transitions
func (m *Machine) SetObserver(observer TransitionObserver) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.observer = observer
}

func (m *Machine) Current() State {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.currentState
}

// Transition moves to the given state or returns a validation error
func (m *Machine) Transition(to State, operation string, err error) error {
	m.mutex.Lock()

	if !m.canTransitionUnsafe(to) {
		from := m.currentState
		m.mutex.Unlock()
		return errors.NewValidationError(
			fmt.Sprintf("invalid lifecycle transition from '%s' to '%s'", from, to),
			nil,
		).WithContext("from_state", string(from)).
			WithContext("to_state", string(to)).
			WithContext("operation", operation)
	}

	from := m.currentState
	m.transitions = append(m.transitions, Transition{
		From:      from,
		To:        to,
		Operation: operation,
		Timestamp: time.Now(),
		Error:     err,
	})
	m.currentState = to
	observer := m.observer
	m.mutex.Unlock()

	if err != nil {
		m.logger.Warnf("Supervisor lifecycle transition, %s->%s, operation: %s, error: %v", from, to, operation, err)
	} else {
		m.logger.Infof("Supervisor lifecycle transition, %s->%s, operation: %s", from, to, operation)
	}

	if observer != nil {
		observer(from, to)
	}
	return nil
}

func (m *Machine) canTransitionUnsafe(to State) bool {
	for _, valid := range m.validTransitions[m.currentState] {
		if valid == to {
			return true
		}
	}
	return false
}

// History returns a copy of all accepted transitions
func (m *Machine) History() []Transition {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	history := make([]Transition, len(m.transitions))
	copy(history, m.transitions)
	return history
}
