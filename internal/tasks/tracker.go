package tasks

// Tracker counts failures for the row currently being processed and
// cumulatively across a whole run. The engine consults it to gate
// retention pruning and checkpoint advancement.
//
// The cumulative count after N rows equals the sum of each row's count at
// the moment ResetForNextPlaylist was called for it; TotalErrorCount also
// includes errors added after the final fold so a trailing summary error
// is never lost.
type Tracker struct {
	playlistErrorCount int
	totalErrorCount    int
	sink               func(message string)
}

// NewTracker creates a Tracker. Every AddError message is forwarded to
// sink, which may be nil.
func NewTracker(sink func(message string)) *Tracker {
	return &Tracker{sink: sink}
}

// AddError records one failure for the current row and forwards the
// message to the sink.
func (t *Tracker) AddError(message string) {
	if t.sink != nil {
		t.sink(message)
	}
	t.playlistErrorCount++
}

// HasErrors reports whether the current row has failed at least once.
func (t *Tracker) HasErrors() bool {
	return t.playlistErrorCount > 0
}

// PlaylistErrorCount returns the current row's error count.
func (t *Tracker) PlaylistErrorCount() int {
	return t.playlistErrorCount
}

// TotalErrorCount returns the run-wide error count, including errors not
// yet folded by ResetForNextPlaylist.
func (t *Tracker) TotalErrorCount() int {
	return t.totalErrorCount + t.playlistErrorCount
}

// ResetForNextPlaylist folds the current row's count into the cumulative
// total and zeroes the per-row count. Call between rows; forgetting this
// ordering corrupts both counters.
func (t *Tracker) ResetForNextPlaylist() {
	t.totalErrorCount += t.playlistErrorCount
	t.playlistErrorCount = 0
}

// Reset zeroes both counters. Called once at run start.
func (t *Tracker) Reset() {
	t.playlistErrorCount = 0
	t.totalErrorCount = 0
}
