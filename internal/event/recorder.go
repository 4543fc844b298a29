package event

// Recorder is a Sink that keeps every notification in memory. Used by tests.
type Recorder struct {
	Donations   []Donation
	ModeChanges []ModeChange
	Heartbeats  []Heartbeat

	// Err, if set, is returned from every call after recording.
	Err error
}

// Donation records e.
func (r *Recorder) Donation(e Donation) error {
	r.Donations = append(r.Donations, e)
	return r.Err
}

// ModeChanged records e.
func (r *Recorder) ModeChanged(e ModeChange) error {
	r.ModeChanges = append(r.ModeChanges, e)
	return r.Err
}

// Heartbeat records e.
func (r *Recorder) Heartbeat(e Heartbeat) error {
	r.Heartbeats = append(r.Heartbeats, e)
	return r.Err
}
