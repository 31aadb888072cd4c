package monitor

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ja7ad/energybench/pkg/rapl"
)

// session holds the mutable sampling state of exactly one run.
type session struct {
	id    string
	state State

	reader rapl.Reader
	scale  rapl.Scale
	now    func() time.Time

	prev    rapl.Snapshot
	samples []rapl.Sample

	started time.Time
	ended   time.Time
}

func newSession(r rapl.Reader, scale rapl.Scale, now func() time.Time) *session {
	return &session{
		id:     uuid.NewString(),
		state:  Idle,
		reader: r,
		scale:  scale,
		now:    now,
	}
}

// start takes the baseline snapshot and moves Idle -> Running.
func (s *session) start() error {
	if s.state != Idle {
		return fmt.Errorf("%w: start from %s", ErrSessionState, s.state)
	}
	snap, err := rapl.ReadSnapshot(s.reader)
	if err != nil {
		return err
	}
	s.prev = snap
	s.samples = s.samples[:0]
	s.started = s.now()
	s.state = Running
	return nil
}

// sample appends the energy drawn since the previous snapshot.
func (s *session) sample() error {
	if s.state != Running {
		return fmt.Errorf("%w: sample while %s", ErrSessionState, s.state)
	}
	curr, err := rapl.ReadSnapshot(s.reader)
	if err != nil {
		return err
	}
	s.samples = append(s.samples, rapl.Delta(s.prev, curr, s.scale))
	s.prev = curr
	return nil
}

// stop takes the final sample, records the end time and moves
// Running -> Stopped, returning the summed energy.
func (s *session) stop() (rapl.Sample, error) {
	if err := s.sample(); err != nil {
		return rapl.Sample{}, err
	}
	s.ended = s.now()
	s.state = Stopped
	return rapl.Sum(s.samples), nil
}

func (s *session) elapsed() time.Duration { return s.ended.Sub(s.started) }
