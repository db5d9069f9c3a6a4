package printing

import "strings"

// PaperShape represents the physical shape of a label
type PaperShape string

const (
	PaperShapeRectangular PaperShape = "rectangular"
	PaperShapeCircular    PaperShape = "circular"
	PaperShapeSplit       PaperShape = "split"      // two halves on one label, e.g. 42x10mm
	PaperShapeCableFlag   PaperShape = "cable_flag" // wrap-around cable label
)

// ParsePaperShape normalizes a shape string. "circle" is accepted as an alias
// of circular because older printer configurations use it.
func ParsePaperShape(s string) (PaperShape, error) {
	switch v := PaperShape(strings.ToLower(strings.TrimSpace(s))); v {
	case "circle":
		return PaperShapeCircular, nil
	case PaperShapeRectangular, PaperShapeCircular, PaperShapeSplit, PaperShapeCableFlag:
		return v, nil
	}
	return "", ErrInvalidPaperShape
}

// IsValid checks if the PaperShape is a valid value
func (s PaperShape) IsValid() bool {
	switch s {
	case PaperShapeRectangular, PaperShapeCircular, PaperShapeSplit, PaperShapeCableFlag:
		return true
	}
	return false
}

// String returns the string representation of PaperShape
func (s PaperShape) String() string {
	return string(s)
}

// UnmarshalText implements encoding.TextUnmarshaler so that JSON and config
// decoding normalize aliases.
func (s *PaperShape) UnmarshalText(text []byte) error {
	v, err := ParsePaperShape(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// AllPaperShapes returns all valid PaperShape values
func AllPaperShapes() []PaperShape {
	return []PaperShape{
		PaperShapeRectangular, PaperShapeCircular, PaperShapeSplit, PaperShapeCableFlag,
	}
}

// JobStatus represents the status of a print job on the backend
type JobStatus string

const (
	JobStatusReceived  JobStatus = "RECEIVED"
	JobStatusPrinting  JobStatus = "PRINTING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
)

// IsValid checks if the JobStatus is a valid value
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusReceived, JobStatusPrinting, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of JobStatus
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal returns true if this is a terminal status (no further transitions)
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo checks if the status can transition to the target status
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	switch s {
	case JobStatusReceived:
		return target == JobStatusPrinting || target == JobStatusFailed
	case JobStatusPrinting:
		return target == JobStatusCompleted || target == JobStatusFailed
	case JobStatusCompleted, JobStatusFailed:
		return false
	}
	return false
}
