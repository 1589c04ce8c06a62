package livesession

// Lifecycle is the session state machine. Transitions are owned exclusively
// by the Session; everything else reads it through callbacks.
//
// Idle -> Connecting -> Active -> Stopping -> Stopped, with Connecting and
// Active additionally able to end in Failed when a device, codec, or
// transport error kills the session.
type Lifecycle string

const (
	LifecycleIdle       Lifecycle = "idle"
	LifecycleConnecting Lifecycle = "connecting"
	LifecycleActive     Lifecycle = "active"
	LifecycleStopping   Lifecycle = "stopping"
	LifecycleStopped    Lifecycle = "stopped"
	LifecycleFailed     Lifecycle = "failed"
)
