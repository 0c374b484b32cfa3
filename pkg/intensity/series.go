package intensity

import (
	"sort"
	"sync"
	"time"
)

// Point is one live carbon-intensity reading.
type Point struct {
	At    time.Time
	Value float64 // gCO2e/kWh
}

// Series is an append-only time series of live readings for one zone. The
// poller goroutine is the writer; task-completion handlers read concurrently.
type Series struct {
	mu     sync.RWMutex
	points []Point
}

// NewSeries returns an empty series.
func NewSeries() *Series { return &Series{} }

// Append records a reading, keeping the series ordered by time. Polled
// readings arrive in order, so the insert position is almost always the end.
func (s *Series) Append(p Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := sort.Search(len(s.points), func(i int) bool { return s.points[i].At.After(p.At) })
	s.points = append(s.points, Point{})
	copy(s.points[i+1:], s.points[i:])
	s.points[i] = p
}

// At returns the most recent reading at or before t. A time before the first
// reading is outside coverage and reports false.
func (s *Series) At(t time.Time) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := sort.Search(len(s.points), func(i int) bool { return s.points[i].At.After(t) })
	if i == 0 {
		return 0, false
	}
	return s.points[i-1].Value, true
}

// Len returns the number of readings.
func (s *Series) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}
