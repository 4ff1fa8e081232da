package scraper

import (
	"bytes"
	"strings"
)

// BlockDetector recognises 200 responses that are really challenge or
// error pages.
type BlockDetector struct {
	signatures [][]byte
}

// NewBlockDetector matches bodies against the given phrases. Blank
// phrases are ignored.
func NewBlockDetector(signatures []string) *BlockDetector {
	d := &BlockDetector{}
	for _, sig := range signatures {
		if sig = strings.TrimSpace(sig); sig != "" {
			d.signatures = append(d.signatures, []byte(sig))
		}
	}
	return d
}

// Match returns the first signature found in body.
func (d *BlockDetector) Match(body []byte) (string, bool) {
	if d == nil {
		return "", false
	}
	for _, sig := range d.signatures {
		if bytes.Contains(body, sig) {
			return string(sig), true
		}
	}
	return "", false
}
