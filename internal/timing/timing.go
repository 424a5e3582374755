package timing

import "time"

// Clock returns the current time. Tests substitute a deterministic one.
type Clock func() time.Time

// Elapsed returns end-beg in milliseconds.
func Elapsed(beg, end time.Time) float64 {
	return float64(end.Sub(beg)) / float64(time.Millisecond)
}

// Stopwatch measures host wall time between Start and Stop.
type Stopwatch struct {
	clock Clock
	beg   time.Time
	end   time.Time
}

func NewStopwatch(clock Clock) *Stopwatch {
	if clock == nil {
		clock = time.Now
	}
	return &Stopwatch{clock: clock}
}

func (s *Stopwatch) Start() {
	s.beg = s.clock()
	s.end = time.Time{}
}

func (s *Stopwatch) Stop() float64 {
	s.end = s.clock()
	return s.ElapsedMs()
}

// ElapsedMs reports the last Start..Stop interval, or the running time if
// Stop has not been called since Start.
func (s *Stopwatch) ElapsedMs() float64 {
	end := s.end
	if end.IsZero() {
		end = s.clock()
	}
	return Elapsed(s.beg, end)
}
