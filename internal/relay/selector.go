package relay

// Strategy identifies one of the four execution strategies.
type Strategy int

const (
	// StrategyStreamRelay forwards genuine upstream SSE events.
	StrategyStreamRelay Strategy = iota
	// StrategyPseudoSequential fakes streaming: fixed heartbeats, then the
	// blocking one-shot call, then synthetic fragments.
	StrategyPseudoSequential
	// StrategyPseudoConcurrent fakes streaming with heartbeats emitted on a
	// timer while the one-shot call runs in the background.
	StrategyPseudoConcurrent
	// StrategyDirect is the plain one-shot call, no wrapping.
	StrategyDirect
	// StrategyKeepAlive wraps the one-shot call with liveness frames and a
	// single terminal document.
	StrategyKeepAlive
)

func (s Strategy) String() string {
	switch s {
	case StrategyStreamRelay:
		return "stream_relay"
	case StrategyPseudoSequential:
		return "pseudo_sequential"
	case StrategyPseudoConcurrent:
		return "pseudo_concurrent"
	case StrategyDirect:
		return "direct"
	case StrategyKeepAlive:
		return "keepalive"
	}
	return "unknown"
}

// SelectStrategy maps (client wants streaming, pseudo-streaming enabled,
// keepalive enabled) to an execution strategy. Pure decision table, no I/O.
// Credential validation happens before this in Dispatch.
func SelectStrategy(wantStream, pseudoEnabled, pseudoConcurrent, keepaliveEnabled bool) Strategy {
	if wantStream {
		if !pseudoEnabled {
			return StrategyStreamRelay
		}
		if pseudoConcurrent {
			return StrategyPseudoConcurrent
		}
		return StrategyPseudoSequential
	}
	if keepaliveEnabled {
		return StrategyKeepAlive
	}
	return StrategyDirect
}
