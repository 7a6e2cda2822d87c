package coordinator

import "log/slog"

// State is the stage a series is in during a run.
type State string

const (
	StateIdle            State = "idle"
	StateFetchingMissing State = "fetching_missing"
	StateMatching        State = "matching"
	StateDownloading     State = "downloading"
	StateFinalizing      State = "finalizing"
	StateReporting       State = "reporting"
)

func (c *Coordinator) setState(seriesID int, s State, log *slog.Logger) {
	c.mu.Lock()
	prev := c.states[seriesID]
	c.states[seriesID] = s
	c.mu.Unlock()
	if prev != s {
		log.Debug("state", "from", prev, "to", s)
	}
}

func (c *Coordinator) state(seriesID int) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.states[seriesID]; ok {
		return s
	}
	return StateIdle
}

// States returns a snapshot of every series' current state.
func (c *Coordinator) States() map[int]State {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int]State, len(c.states))
	for id, s := range c.states {
		out[id] = s
	}
	return out
}
