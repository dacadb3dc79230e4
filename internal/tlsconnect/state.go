package tlsconnect

import (
	"fmt"
	"net/url"
)

// State is the state of a connection traversing a [*Stage].
type State int

const (
	// StateIdle means we have not started yet.
	StateIdle = State(iota)

	// StateIdentityResolved means we know the server name.
	StateIdentityResolved

	// StateInnerConnected means the inner stage returned a stream.
	StateInnerConnected

	// StateUnwrapped means we have extracted the conn and the protocols.
	StateUnwrapped

	// StateConfigDerived means we know which TLS config to use.
	StateConfigDerived

	// StateHandshakeInFlight means the handshake is running.
	StateHandshakeInFlight

	// StateSecured is the successful terminal state.
	StateSecured

	// StateFailed is the failed terminal state.
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:              "idle",
	StateIdentityResolved:  "identity_resolved",
	StateInnerConnected:    "inner_connected",
	StateUnwrapped:         "unwrapped",
	StateConfigDerived:     "config_derived",
	StateHandshakeInFlight: "handshake_in_flight",
	StateSecured:           "secured",
	StateFailed:            "failed",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if name, found := stateNames[s]; found {
		return name
	}
	return fmt.Sprintf("state_%d", int(s))
}

// Terminal returns whether there are no transitions out of this state.
func (s State) Terminal() bool {
	return s == StateSecured || s == StateFailed
}

// Observer is notified of each state a connection enters. It is
// called on the goroutine running the stage and must not block.
type Observer func(u *url.URL, state State)
