package daemon

import (
	"sync"
	"time"
)

// PollRecorder records the times of the last N polls.
type PollRecorder struct {
	MaxRecordCount int
	LastPollTimes  []time.Time
	mu             *sync.Mutex
}

// NewPollRecorder returns a new PollRecorder.
func NewPollRecorder(maxRecordCount int) *PollRecorder {
	return &PollRecorder{
		MaxRecordCount: maxRecordCount,
		LastPollTimes:  make([]time.Time, 0),
		mu:             &sync.Mutex{},
	}
}

// AddRecordNow adds a new record with the current time.
func (r *PollRecorder) AddRecordNow() {
	r.AddRecord(time.Now())
}

// AddRecord adds a new record.
func (r *PollRecorder) AddRecord(t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Strip monotonic clock reading, so time.Since stays accurate across
	// a suspend.
	t = t.Round(0)

	if len(r.LastPollTimes) >= r.MaxRecordCount {
		r.LastPollTimes = r.LastPollTimes[1:]
	}
	r.LastPollTimes = append(r.LastPollTimes, t)
}

// GetRecords returns a copy of the records.
func (r *PollRecorder) GetRecords() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]time.Time(nil), r.LastPollTimes...)
}

// GetRecordsString returns the records in RFC3339 format.
func (r *PollRecorder) GetRecordsString() []string {
	records := r.GetRecords()
	recordsString := make([]string, 0, len(records))
	for _, record := range records {
		recordsString = append(recordsString, record.Format(time.RFC3339))
	}
	return recordsString
}

// GetLastRecord returns the last record, or the zero time.
func (r *PollRecorder) GetLastRecord() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.LastPollTimes) == 0 {
		return time.Time{}
	}

	return r.LastPollTimes[len(r.LastPollTimes)-1]
}

// GetRecordsIn returns the number of continuous records in the last
// duration. Two adjacent records are continuous when they are less than
// interval+1s apart.
func (r *PollRecorder) GetRecordsIn(last, interval time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	gap := interval + time.Second

	// The last record must be within the last duration.
	if len(r.LastPollTimes) > 0 && time.Since(r.LastPollTimes[len(r.LastPollTimes)-1]) >= gap {
		return 0
	}

	count := 0
	for i := len(r.LastPollTimes) - 1; i >= 0; i-- {
		record := r.LastPollTimes[i]
		if time.Since(record) > last {
			break
		}

		theRecordAfter := record
		if i+1 < len(r.LastPollTimes) {
			theRecordAfter = r.LastPollTimes[i+1]
		}

		if theRecordAfter.Sub(record) >= gap {
			break
		}
		count++
	}

	return count
}

func formatRelativeTimes(times []time.Time) []string {
	var timesString []string
	for _, t := range times {
		timesString = append(timesString, time.Since(t).Round(time.Second).String())
	}
	return timesString
}
