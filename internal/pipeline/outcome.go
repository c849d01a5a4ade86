package pipeline

import "github.com/ironsheep/plate-detect/internal/detection"

// Status is the final state of one candidate.
type Status int

const (
	// Persisted means the annotated image was written to the destination.
	Persisted Status = iota

	// Skipped means the candidate is not a supported, decodable image.
	Skipped

	// Failed means detection or persistence failed for a valid image.
	Failed
)

func (s Status) String() string {
	switch s {
	case Persisted:
		return "persisted"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Outcome is the result of processing one candidate.
type Outcome struct {
	// Name is the candidate file name.
	Name string

	Status Status

	// OutputPath is set when Status is Persisted.
	OutputPath string

	// Detections are the boxes drawn, with their final labels.
	Detections []detection.Detection

	// Err is the skip or failure reason. It is nil when Status is Persisted.
	Err error
}

// Summary aggregates the outcomes of a run, in candidate order.
type Summary struct {
	Outcomes  []Outcome
	Persisted int
	Skipped   int
	Failed    int
}

func (s *Summary) add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.Status {
	case Persisted:
		s.Persisted++
	case Skipped:
		s.Skipped++
	case Failed:
		s.Failed++
	}
}
