package middleware

import (
	"context"
	"time"
)

// Event describes one admission decision.
type Event struct {
	RequestID string    // X-Request-ID of the inbound request, or a generated id
	Key       string    // identity key the decision was made for
	Origin    string    // resolved client origin
	Route     string    // request path
	Method    string    // request method
	Allowed   bool      // admission outcome
	Remaining int       // quota left after the decision
	At        time.Time // when the decision was made
}

// Recorder receives one Event per admission decision. Record runs on the
// request path; implementations must be safe for concurrent use and should
// not block.
type Recorder interface {
	Record(ctx context.Context, ev Event)
}

// MultiRecorder returns a Recorder that hands each event to every given
// recorder in order. Nil recorders are skipped.
func MultiRecorder(recorders ...Recorder) Recorder {
	kept := make([]Recorder, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			kept = append(kept, r)
		}
	}
	return multiRecorder(kept)
}

type multiRecorder []Recorder

func (m multiRecorder) Record(ctx context.Context, ev Event) {
	for _, r := range m {
		r.Record(ctx, ev)
	}
}
