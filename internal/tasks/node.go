package tasks

import (
	"errors"
	"time"
)

// State is the position of a node in its lifecycle
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StatePassed
	StateFailed
	StateSkipped
	StateError
	StateForceFailed
	StateFinished
)

// String makes State satisfy the fmt.Stringer interface.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateRunning:
		return "running"
	case StatePassed:
		return "passed"
	case StateFailed:
		return "failed"
	case StateSkipped:
		return "skipped"
	case StateError:
		return "error"
	case StateForceFailed:
		return "force-failed"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

func (s State) isOutcome() bool {
	return s >= StatePassed && s <= StateForceFailed
}

var (
	// ErrNotRunning is returned when a node receives an event that needs it to be started
	ErrNotRunning = errors.New("task is not running")
	// ErrAlreadyFinished is returned for any transition requested after Finished
	ErrAlreadyFinished = errors.New("task already finished")
	// ErrOutcomeRecorded is returned when a second result arrives for a node
	ErrOutcomeRecorded = errors.New("task outcome already recorded")
	// ErrInvalidOutcome is returned when a non-outcome state is recorded as a result
	ErrInvalidOutcome = errors.New("invalid task outcome")
)

// Node tracks one task during a run. Several framework granularities can map
// onto the same node (a fact's method, its test case and its single test), so
// a node counts how many times it has been opened and only reports Finished
// once the outermost open is closed.
type Node struct {
	task      Task
	state     State
	outcome   State
	message   string
	opens     int
	anyFailed bool
	elapsed   time.Duration
	seeded    bool
	dynamic   bool
}

// Task returns the task this node tracks
func (n *Node) Task() Task { return n.task }

// State returns the current lifecycle state
func (n *Node) State() State { return n.state }

// Outcome returns the recorded result state, or StateNotStarted if none
func (n *Node) Outcome() State { return n.outcome }

// Seeded reports whether the node was known before the run started
func (n *Node) Seeded() bool { return n.seeded }

// Dynamic reports whether the node was created for a task first seen in the event stream
func (n *Node) Dynamic() bool { return n.dynamic }

// Finished reports whether the node reached its terminal state
func (n *Node) Finished() bool { return n.state == StateFinished }

// Started reports whether the node left NotStarted
func (n *Node) Started() bool { return n.state != StateNotStarted }

// Open marks the node as running. first is true only for the open that
// started the node.
func (n *Node) Open() (first bool, err error) {
	if n.state == StateFinished {
		return false, ErrAlreadyFinished
	}
	n.opens++
	if n.state == StateNotStarted {
		n.state = StateRunning
		return true, nil
	}
	return false, nil
}

// CheckRunning returns an error unless the node accepts output
func (n *Node) CheckRunning() error {
	switch {
	case n.state == StateFinished:
		return ErrAlreadyFinished
	case n.state == StateNotStarted:
		return ErrNotRunning
	}
	return nil
}

// Record stores the result of the node. Only one result is accepted per run.
func (n *Node) Record(outcome State, message string) error {
	if !outcome.isOutcome() {
		return ErrInvalidOutcome
	}
	if err := n.CheckRunning(); err != nil {
		return err
	}
	if n.outcome != StateNotStarted {
		return ErrOutcomeRecorded
	}
	n.state = outcome
	n.outcome = outcome
	n.message = message
	if outcome == StateFailed || outcome == StateError || outcome == StateForceFailed {
		n.anyFailed = true
	}
	return nil
}

// Close undoes one Open. last is true when the outermost open was closed and
// the node is now finished; the caller must then report Finished exactly once.
func (n *Node) Close(elapsed time.Duration, failed bool) (last bool, err error) {
	if n.state == StateFinished {
		return false, ErrAlreadyFinished
	}
	if n.opens == 0 {
		return false, ErrNotRunning
	}
	n.opens--
	n.anyFailed = n.anyFailed || failed
	if elapsed > 0 {
		// outer granularities close later and report the wider time
		n.elapsed = elapsed
	}
	if n.opens > 0 {
		return false, nil
	}
	n.state = StateFinished
	return true, nil
}

// Abort overrides any recorded result with outcome and finishes the node
// regardless of how many opens are outstanding. It is used when an enclosing
// scope failed and the node will never be closed by the framework.
func (n *Node) Abort(outcome State, message string) error {
	if !outcome.isOutcome() {
		return ErrInvalidOutcome
	}
	if n.state == StateFinished {
		return ErrAlreadyFinished
	}
	if n.state == StateNotStarted {
		return ErrNotRunning
	}
	n.outcome = outcome
	n.message = message
	n.anyFailed = true
	n.opens = 0
	n.state = StateFinished
	return nil
}

// Finish describes the Finished notification for a node that reached its
// terminal state.
func (n *Node) Finish() Finish {
	return Finish{
		Elapsed:   n.elapsed,
		AnyFailed: n.anyFailed,
		Result:    n.result(),
		Message:   n.message,
	}
}

func (n *Node) result() Result {
	switch n.outcome {
	case StatePassed:
		return ResultSuccess
	case StateSkipped:
		return ResultSkipped
	case StateFailed:
		return ResultException
	case StateError, StateForceFailed:
		return ResultError
	}
	if n.anyFailed {
		return ResultException
	}
	return ResultSuccess
}
