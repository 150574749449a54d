package connectivity

import "sync/atomic"

// State holds the current reachability verdict. It starts online.
type State struct {
	offline atomic.Bool
}

func NewState() *State {
	return &State{}
}

func (s *State) Online() bool {
	return !s.offline.Load()
}

// set stores online and reports whether the value changed.
func (s *State) set(online bool) bool {
	return s.offline.Swap(!online) != !online
}
