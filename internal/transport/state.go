package transport

// State is a step of the per-attempt exchange.
type State int

const (
	StateConnecting State = iota
	StateSending
	StateAwaitingHead
	StateHeadReceived
	StateFollowingRedirect
	StateStreamingBody
	StateDone
	StateFatal
)

var stateNames = [...]string{
	StateConnecting:        "connecting",
	StateSending:           "sending",
	StateAwaitingHead:      "awaiting-head",
	StateHeadReceived:      "head-received",
	StateFollowingRedirect: "following-redirect",
	StateStreamingBody:     "streaming-body",
	StateDone:              "done",
	StateFatal:             "fatal",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
