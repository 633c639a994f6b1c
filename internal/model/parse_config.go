package model

import (
	"regexp"
	"strings"

	"github.com/chonkit/chonkit/internal/chonkiterr"
)

// ParseConfig controls how a Parser turns a document's bytes into text: an
// optional line Range restricting what gets parsed, and an ordered set
// of regex Filters applied to the result (matching lines are dropped).
type ParseConfig struct {
	Start   int
	End     int
	Range   bool
	Filters []string
}

// DefaultParseConfig returns the zero-value config: no range restriction, no
// filters, i.e. parse the whole document verbatim.
func DefaultParseConfig() ParseConfig {
	return ParseConfig{}
}

// Validate checks Start <= End and that every filter compiles as a regex.
func (c ParseConfig) Validate() error {
	if c.Start > c.End {
		return chonkiterr.Validation("parse config start (%d) must not exceed end (%d)", c.Start, c.End)
	}
	for _, f := range c.Filters {
		if _, err := regexp.Compile(f); err != nil {
			return chonkiterr.Validation("parse config filter %q is not a valid regex: %v", f, err)
		}
	}
	return nil
}

// Apply runs the configured range restriction and filters over content's
// lines, returning the resulting text.
func (c ParseConfig) Apply(content string) (string, error) {
	lines := strings.Split(content, "\n")

	if c.Range {
		start := c.Start
		end := c.End
		if start < 0 {
			start = 0
		}
		if end > len(lines) {
			end = len(lines)
		}
		if start > end {
			start = end
		}
		lines = lines[start:end]
	}

	if len(c.Filters) == 0 {
		return strings.Join(lines, "\n"), nil
	}

	compiled := make([]*regexp.Regexp, len(c.Filters))
	for i, f := range c.Filters {
		re, err := regexp.Compile(f)
		if err != nil {
			return "", chonkiterr.Wrap(chonkiterr.KindInfra, err, "compiling parse config filter %q", f)
		}
		compiled[i] = re
	}

	kept := lines[:0:0]
	for _, line := range lines {
		skip := false
		for _, re := range compiled {
			if re.MatchString(line) {
				skip = true
				break
			}
		}
		if !skip {
			kept = append(kept, line)
		}
	}

	return strings.Join(kept, "\n"), nil
}
