package blinky

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clambin/ledrotator/internal/board"
	"github.com/clambin/ledrotator/internal/rtos"
)

// Health reports the state of the running variant
type Health struct {
	Mode      string
	Handoff   string `json:",omitempty"`
	Scheduler rtos.Snapshot
	Active    string          `json:",omitempty"`
	Elevated  string          `json:",omitempty"`
	Cycles    int64           `json:",omitempty"`
	LEDs      map[string]bool `json:",omitempty"`
}

// Health returns the current state of the scheduler, the variant and (if the board can report them) the LEDs
func (s *Blinky) Health() Health {
	h := Health{
		Mode:      s.cfg.Mode,
		Scheduler: s.Scheduler.Snapshot(),
	}
	if s.ring != nil {
		h.Handoff = s.cfg.Rotation.Handoff
		if c, ok := s.ring.Active(); ok {
			h.Active = c.String()
		}
		if c, err := s.ring.Elevated(); err == nil {
			h.Elevated = c.String()
		}
	}
	if s.sequence != nil {
		h.Cycles = s.sequence.Cycles()
	}
	if r, ok := s.board.(board.Reader); ok {
		var err error
		if h.LEDs, err = board.States(r); err != nil && !errors.Is(err, board.ErrNotSupported) {
			s.logger.WithError(err).Warning("failed to read led states")
		}
	}
	return h
}

func (s *Blinky) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body, err := json.MarshalIndent(s.Health(), "", "\t")
	if err != nil {
		http.Error(w, "could not determine health: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}
