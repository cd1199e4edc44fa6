package snoop

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/snoopflow/snoopflow/internal/utils"
)

// ErrIndent is returned when a recognised line carries an indent run that is
// not a multiple of four repetitions of the indent string.
var ErrIndent = errors.New("indent run is not a multiple of 4")

// indentUnit is the number of indent repetitions per call level.
const indentUnit = 4

const timestampPattern = `(\d{2}:\d{2}:\d{2}.\d{6})`

type linePattern struct {
	kind Kind
	re   *regexp.Regexp
}

// Classifier recognises the six trace line patterns for one indent string.
// It holds no per-line state and may be reused across traces.
type Classifier struct {
	indent   string
	patterns []linePattern
}

// NewClassifier compiles the line patterns for the given indent string.
func NewClassifier(indent string) (*Classifier, error) {
	if indent == "" {
		return nil, utils.NewValidationError("indent-char", "cannot be empty")
	}

	ind := `^((?:` + regexp.QuoteMeta(indent) + `)+)`
	event := func(tag string) string {
		return ind + timestampPattern + `\s*\[` + tag + `\s*(\d+)\]\s*(\S.*)$`
	}

	specs := []struct {
		kind Kind
		expr string
	}{
		{KindSourcePath, ind + `Source path:\.\.\.\s*(\S.*)$`},
		{KindLineExec, event("line")},
		{KindCall, event("call")},
		{KindReturn, event("return")},
		{KindArguments, ind + `Pass arguments:\s*\{.+$`},
		{KindReturnValue, ind + `Return value:\.\.\s*<?.+$`},
	}

	c := &Classifier{indent: indent}
	for _, s := range specs {
		re, err := regexp.Compile(s.expr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s pattern: %w", s.kind, err)
		}
		c.patterns = append(c.patterns, linePattern{kind: s.kind, re: re})
	}
	return c, nil
}

// Classify returns the event represented by line, or an Event of KindNone.
// An error wrapping ErrIndent means the line matched a pattern but its indent
// run violates the trace format.
func (c *Classifier) Classify(line string) (Event, error) {
	line = strings.TrimRightFunc(line, unicode.IsSpace)

	for _, p := range c.patterns {
		m := p.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		level, err := c.level(m[1])
		if err != nil {
			return Event{}, err
		}
		if level == 0 {
			return Event{Kind: KindNone}, nil
		}

		ev := Event{Kind: p.kind, Level: level}
		switch p.kind {
		case KindSourcePath:
			ev.Path = m[2]
		case KindLineExec, KindCall, KindReturn:
			ev.Timestamp = m[2]
			ev.LineNo, err = strconv.Atoi(m[3])
			if err != nil {
				return Event{}, fmt.Errorf("invalid line number %q: %w", m[3], err)
			}
			ev.Code = m[4]
		}
		return ev, nil
	}

	return Event{Kind: KindNone}, nil
}

// level converts a leading indent run into a call level. Runs shorter than
// one unit are not part of the trace format and yield level 0.
func (c *Classifier) level(run string) (int, error) {
	reps := len(run) / len(c.indent)
	if reps < indentUnit {
		return 0, nil
	}
	if reps%indentUnit != 0 {
		return 0, fmt.Errorf("%w: got %d repetitions of %q", ErrIndent, reps, c.indent)
	}
	return reps / indentUnit, nil
}
