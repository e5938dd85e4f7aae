package srt

import (
	"fmt"
	"strings"
)

// Segment is a single subtitle entry. Times are in seconds from the start
// of the audio stream.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// FormatTimestamp converts seconds to an SRT timestamp (HH:MM:SS,mmm).
// Total milliseconds are rounded before decomposition, so sub-millisecond
// values at a second boundary carry into the seconds field instead of
// rendering ",1000". Hours are not wrapped; inputs past 99 hours render
// with as many digits as needed.
func FormatTimestamp(seconds float64) string {
	totalMs := int64(seconds*1000 + 0.5)
	h := totalMs / 3600000
	totalMs %= 3600000
	m := totalMs / 60000
	totalMs %= 60000
	s := totalMs / 1000
	ms := totalMs % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// Encode renders segments as a SubRip document. Indices are 1-based and
// contiguous regardless of any numbering in the source data, and segment
// order is preserved as given; callers are responsible for temporal order.
// An empty slice yields an empty string.
func Encode(segments []Segment) string {
	var sb strings.Builder

	for i, seg := range segments {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%d\n", i+1))
		sb.WriteString(fmt.Sprintf("%s --> %s\n", FormatTimestamp(seg.Start), FormatTimestamp(seg.End)))
		sb.WriteString(strings.TrimSpace(seg.Text))
		sb.WriteString("\n")
	}

	return sb.String()
}

// ToVTT renders segments as WebVTT for in-browser preview. Same layout as
// Encode with the VTT header and dot millisecond separators.
func ToVTT(segments []Segment) string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")

	for i, seg := range segments {
		sb.WriteString(fmt.Sprintf("%d\n", i+1))
		start := strings.Replace(FormatTimestamp(seg.Start), ",", ".", 1)
		end := strings.Replace(FormatTimestamp(seg.End), ",", ".", 1)
		sb.WriteString(fmt.Sprintf("%s --> %s\n", start, end))
		sb.WriteString(strings.TrimSpace(seg.Text))
		sb.WriteString("\n\n")
	}

	return sb.String()
}
