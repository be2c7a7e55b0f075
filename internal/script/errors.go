package script

import "fmt"

// KindValidation is reported by every error that stems from bad input.
const KindValidation = "validation"

// MissingScenesError is returned when a script carries no scenes.
type MissingScenesError struct{}

func (MissingScenesError) Error() string     { return "script has no scenes" }
func (MissingScenesError) ErrorKind() string { return KindValidation }

// DurationOutOfRangeError is returned when the raw total duration falls
// outside the configured inclusive bounds.
type DurationOutOfRangeError struct {
	Total float64
	Min   float64
	Max   float64
}

func (e *DurationOutOfRangeError) Error() string {
	return fmt.Sprintf("script duration %.2fs is outside the allowed range [%.0fs, %.0fs]", e.Total, e.Min, e.Max)
}

func (e *DurationOutOfRangeError) ErrorKind() string { return KindValidation }

// UnsupportedContentTypeError is returned for content types the video
// pipeline does not render.
type UnsupportedContentTypeError struct {
	ContentType string
}

func (e *UnsupportedContentTypeError) Error() string {
	return fmt.Sprintf("unsupported content type %q (only %q produces video)", e.ContentType, ContentTopicTeaser)
}

func (e *UnsupportedContentTypeError) ErrorKind() string { return KindValidation }
