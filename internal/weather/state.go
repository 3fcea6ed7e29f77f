package weather

import "fmt"

// StateKind enumerates the screen states the controller publishes.
type StateKind int

const (
	StateIdle StateKind = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (k StateKind) String() string {
	switch k {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("StateKind(%d)", int(k))
	}
}

// Action is what the failure screen's button does.
type Action int

const (
	ActionRetry Action = iota + 1
	ActionEnableLocationAccess
)

func (a Action) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionEnableLocationAccess:
		return "enable_location_access"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

const (
	unexpectedErrorMessage = "Something unexpected happened, please try again"
	locationErrorMessage   = "We need your location to show the weather where you are"
)

// ErrorPresentation describes a failure screen.
type ErrorPresentation struct {
	Message     string
	IconRef     string
	ActionLabel string
	Action      Action
}

// RetryFailure is shown after a fetch or decode failure.
func RetryFailure() ErrorPresentation {
	return ErrorPresentation{
		Message:     unexpectedErrorMessage,
		IconRef:     "exclamationmark.triangle",
		ActionLabel: "Retry",
		Action:      ActionRetry,
	}
}

// LocationFailure is shown when no coordinate could be obtained.
func LocationFailure() ErrorPresentation {
	return ErrorPresentation{
		Message:     locationErrorMessage,
		IconRef:     "location.slash",
		ActionLabel: "Enable location access",
		Action:      ActionEnableLocationAccess,
	}
}

// State is one value of the controller's output stream. Cycle and CycleID
// identify the load cycle that produced it; both are zero for StateIdle.
type State struct {
	Kind    StateKind
	Cycle   uint64
	CycleID string

	Model   *PresentationModel
	Failure *ErrorPresentation
}

// Idle is the state before the first cycle starts.
func Idle() State { return State{Kind: StateIdle} }

func loading(cycle uint64, id string) State {
	return State{Kind: StateLoading, Cycle: cycle, CycleID: id}
}

func loaded(cycle uint64, id string, m PresentationModel) State {
	return State{Kind: StateLoaded, Cycle: cycle, CycleID: id, Model: &m}
}

func failed(cycle uint64, id string, f ErrorPresentation) State {
	return State{Kind: StateFailed, Cycle: cycle, CycleID: id, Failure: &f}
}
