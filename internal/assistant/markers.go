package assistant

import "strings"

const (
	markerOpen  = "【"
	markerClose = "】"
)

// StripMarkers removes the 【...】 citation annotations the assistant embeds
// in answers sourced from files, and trims surrounding whitespace. Unpaired
// brackets are left alone.
func StripMarkers(s string) string {
	for {
		start := strings.Index(s, markerOpen)
		if start < 0 {
			break
		}
		rest := s[start+len(markerOpen):]
		end := strings.Index(rest, markerClose)
		if end < 0 {
			break
		}
		s = s[:start] + rest[end+len(markerClose):]
	}
	return strings.TrimSpace(s)
}
