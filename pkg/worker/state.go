// Package worker implements the interception worker: a long-lived
// component that seeds and owns the two cache partitions and answers GET
// requests with cache-then-network and stale-while-revalidate semantics.
package worker

// State is a lifecycle phase of the worker. A worker moves strictly
// forward: installing, installed (waiting), activating, activated. A
// stopped worker is terminal and is replaced wholesale by a new instance.
type State int32

const (
	// StateNew is the initial state before installation begins.
	StateNew State = iota

	// StateInstalling means partition seeding is in progress.
	StateInstalling

	// StateInstalled means seeding succeeded and the worker is waiting to
	// activate.
	StateInstalled

	// StateActivating means stale partitions are being evicted.
	StateActivating

	// StateActivated means the worker is serving intercepted requests.
	StateActivated

	// StateStopped is terminal.
	StateStopped
)

// String returns the lifecycle phase name.
func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActivated:
		return "activated"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
