package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Submission is one job the user wants the backend to run.
type Submission struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Supported video URL shapes, matching what the backend accepts.
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com/watch\?v=|youtu\.be/)[\w-]+`),
	regexp.MustCompile(`^(https?://)?(www\.)?youtube\.com/shorts/[\w-]+`),
}

// ValidURL reports whether url looks like a video the backend can fetch.
func ValidURL(url string) bool {
	for _, p := range urlPatterns {
		if p.MatchString(url) {
			return true
		}
	}
	return false
}

// ValidateSubmissions rejects empty or malformed input before any network
// call. Rows with an empty URL are skipped; at least one usable row must
// remain.
func ValidateSubmissions(subs []Submission) ([]Submission, error) {
	out := make([]Submission, 0, len(subs))
	for _, s := range subs {
		s.URL = strings.TrimSpace(s.URL)
		s.Filename = strings.TrimSpace(s.Filename)
		if s.URL == "" {
			continue
		}
		if !ValidURL(s.URL) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidURL, s.URL)
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no URLs given", ErrInvalidURL)
	}
	return out, nil
}
