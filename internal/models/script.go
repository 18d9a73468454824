package models

// Segment is one speaker-tagged block of script text. PauseAfterSec is
// an optional silence the synthesizer inserts after the segment.
type Segment struct {
	Speaker       string `json:"speaker"`
	Text          string `json:"text"`
	PauseAfterSec int    `json:"pause_after_sec"`
}

// Script is the generated episode script. Dialogue scripts carry two or
// more distinct speakers, wellness and briefing scripts exactly one.
type Script struct {
	Title    string    `json:"title"`
	Summary  string    `json:"summary"`
	Segments []Segment `json:"segments"`
}

// Speakers returns the distinct speaker tags in script order.
func (s *Script) Speakers() []string {
	seen := make(map[string]bool)
	var speakers []string
	for _, seg := range s.Segments {
		if !seen[seg.Speaker] {
			seen[seg.Speaker] = true
			speakers = append(speakers, seg.Speaker)
		}
	}
	return speakers
}
