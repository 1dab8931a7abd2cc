// Package schema validates outbound events before they are mirrored
// onto Kafka. It started life as the teacher's stubbed
// log-and-pass-through validator; it now actually checks the shape of
// models.Segment/models.Transcript, still leaving room for a real
// JSON Schema validator to replace the field checks later.
package schema

import (
	"fmt"

	"caption-core/internal/models"
)

// Validator checks outbound events for the minimal invariants every
// consumer of the segment/transcript topics depends on.
type Validator struct{}

// New constructs a Validator.
func New() *Validator {
	return &Validator{}
}

// Validate dispatches on the event's concrete type. Unrecognized
// types pass through unchecked, same as the stub this replaced.
func (v *Validator) Validate(event any) error {
	switch e := event.(type) {
	case models.Segment:
		return validateSegment(e)
	case models.Transcript:
		return validateTranscript(e)
	default:
		return nil
	}
}

func validateSegment(s models.Segment) error {
	if s.EndSec < s.StartSec {
		return fmt.Errorf("schema: segment endSec %.3f before startSec %.3f", s.EndSec, s.StartSec)
	}
	if s.ArrivalTime.IsZero() {
		return fmt.Errorf("schema: segment missing arrivalTime")
	}
	return nil
}

func validateTranscript(t models.Transcript) error {
	if t.RecvTimestamp.IsZero() {
		return fmt.Errorf("schema: transcript missing recvTimestamp")
	}
	for i, w := range t.Words {
		if w.EndSec < w.StartSec {
			return fmt.Errorf("schema: word %d endSec %.3f before startSec %.3f", i, w.EndSec, w.StartSec)
		}
	}
	return nil
}
