package replica

// State is a session's position in the connection lifecycle.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateGreeting
	StateAuthenticating
	StateConfiguring
	StateRegistering
	StateStreaming
	StateRotating
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateGreeting:
		return "greeting"
	case StateAuthenticating:
		return "authenticating"
	case StateConfiguring:
		return "configuring"
	case StateRegistering:
		return "registering"
	case StateStreaming:
		return "streaming"
	case StateRotating:
		return "rotating"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
