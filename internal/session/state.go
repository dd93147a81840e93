package session

// State is the lifecycle position of a Session.
type State int

const (
	Uninitialized State = iota
	ConfigLoaded
	PromptCompiled
	Idle
	AwaitingRemoteReply
	Halted
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case ConfigLoaded:
		return "config_loaded"
	case PromptCompiled:
		return "prompt_compiled"
	case Idle:
		return "idle"
	case AwaitingRemoteReply:
		return "awaiting_remote_reply"
	case Halted:
		return "halted"
	default:
		return "unknown"
	}
}
