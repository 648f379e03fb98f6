package daemon

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// CycleRecorder records the completion times of the last N successful
// poll cycles, so gaps (host sleep, bus stalls) can be spotted.
type CycleRecorder struct {
	maxRecordCount int
	interval       time.Duration
	records        []time.Time
	mu             sync.Mutex
}

// NewCycleRecorder returns a recorder for an engine polling every interval.
func NewCycleRecorder(maxRecordCount int, interval time.Duration) *CycleRecorder {
	return &CycleRecorder{
		maxRecordCount: maxRecordCount,
		interval:       interval,
		records:        make([]time.Time, 0, maxRecordCount),
	}
}

// tolerance is how late a cycle may complete and still count as continuous.
func (r *CycleRecorder) tolerance() time.Duration {
	return r.interval + time.Second
}

// AddRecord adds a new record. A record arriving after a gap is logged.
func (r *CycleRecorder) AddRecord(t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Strip monotonic clock reading.
	t = t.Round(0)

	if n := len(r.records); n > 0 {
		if gap := t.Sub(r.records[n-1]); gap >= 2*r.interval+time.Second {
			logrus.WithFields(logrus.Fields{
				"gap":      gap.String(),
				"interval": r.interval.String(),
			}).Info("poll cycles missed, host was asleep or the bus stalled")
		}
	}

	if len(r.records) >= r.maxRecordCount {
		r.records = r.records[1:]
	}
	r.records = append(r.records, t)
}

// GetRecords returns a copy of the records, oldest first.
func (r *CycleRecorder) GetRecords() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]time.Time, len(r.records))
	copy(out, r.records)
	return out
}

// ContinuousIn returns the number of continuous records within last,
// counted back from now.
func (r *CycleRecorder) ContinuousIn(last time.Duration, now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	// The last record must be recent, otherwise nothing is continuous.
	if len(r.records) == 0 || now.Sub(r.records[len(r.records)-1]) >= r.tolerance() {
		return 0
	}

	count := 0
	for i := len(r.records) - 1; i >= 0; i-- {
		record := r.records[i]
		if now.Sub(record) > last {
			break
		}

		theRecordAfter := record
		if i+1 < len(r.records) {
			theRecordAfter = r.records[i+1]
		}

		if theRecordAfter.Sub(record) >= r.tolerance() {
			break
		}
		count++
	}

	return count
}
