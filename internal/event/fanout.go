package event

import "errors"

// Fanout delivers every notification to each sink in order.
// A failing sink does not prevent delivery to the others.
type Fanout []Sink

// Donation forwards e to every sink.
func (f Fanout) Donation(e Donation) error {
	var errs []error
	for _, s := range f {
		if err := s.Donation(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ModeChanged forwards e to every sink.
func (f Fanout) ModeChanged(e ModeChange) error {
	var errs []error
	for _, s := range f {
		if err := s.ModeChanged(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Heartbeat forwards e to every sink.
func (f Fanout) Heartbeat(e Heartbeat) error {
	var errs []error
	for _, s := range f {
		if err := s.Heartbeat(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Donation(Donation) error     { return nil }
func (discard) ModeChanged(ModeChange) error { return nil }
func (discard) Heartbeat(Heartbeat) error   { return nil }
