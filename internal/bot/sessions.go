package bot

import "sync"

// ManualTarget says where a pending manual-override report should go.
type ManualTarget int

const (
	TargetNone ManualTarget = iota
	TargetChannel
	TargetAdmin
)

// Sessions tracks, per operator, whether the bot is awaiting a manual
// data message and where the resulting report is bound. The flag is
// cleared on consume: the next message from the operator takes it even
// when that message fails to parse.
type Sessions struct {
	mu      sync.Mutex
	pending map[int64]ManualTarget
}

func NewSessions() *Sessions {
	return &Sessions{pending: make(map[int64]ManualTarget)}
}

// Await marks the operator as owing a manual data message.
func (s *Sessions) Await(operatorID int64, target ManualTarget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[operatorID] = target
}

// Take returns and unconditionally clears the operator's pending
// target.
func (s *Sessions) Take(operatorID int64) (ManualTarget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.pending[operatorID]
	if ok {
		delete(s.pending, operatorID)
	}
	return target, ok && target != TargetNone
}
