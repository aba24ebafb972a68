package path

import (
	"fmt"
	"strings"
)

// Inducer distinguishes the two signifier forms: CONTINUE and HALT.
type Inducer string

const (
	InducerContinue Inducer = "CONTINUE" // ⟿[PHASE]
	InducerHalt     Inducer = "HALT"     // ⟂[PHASE:reason]
)

const (
	continueMark = "⟿["
	haltMark     = "⟂["
)

// ParsedSignifier is the N-phase control marker extracted from the trailing
// free text of an aspect's output value. Signifiers are never part of the
// path grammar itself — they stay a narrow sentinel grammar at the
// handler output boundary.
type ParsedSignifier struct {
	Inducer Inducer
	Target  string
	Payload map[string]string // CONTINUE: the "," key=value pairs; HALT: {"reason": ...} when a reason is given
}

// ParseSignifier scans the last line of text for a trailing ⟿[...] or ⟂[...]
// marker. It returns (nil, false) if the last line carries no signifier.
func ParseSignifier(text string) (*ParsedSignifier, bool) {
	lines := strings.Split(text, "\n")
	last := strings.TrimSpace(lines[len(lines)-1])

	if strings.HasPrefix(last, continueMark) && strings.HasSuffix(last, "]") {
		body := last[len(continueMark) : len(last)-1]
		parts := strings.Split(body, ",")
		sig := &ParsedSignifier{Inducer: InducerContinue, Target: strings.TrimSpace(parts[0]), Payload: map[string]string{}}
		for _, kv := range parts[1:] {
			if idx := strings.IndexByte(kv, '='); idx >= 0 {
				k := strings.TrimSpace(kv[:idx])
				v := strings.TrimSpace(kv[idx+1:])
				sig.Payload[k] = v
			}
		}
		return sig, true
	}

	if strings.HasPrefix(last, haltMark) && strings.HasSuffix(last, "]") {
		body := last[len(haltMark) : len(last)-1]
		idx := strings.IndexByte(body, ':')
		if idx < 0 {
			return &ParsedSignifier{Inducer: InducerHalt, Target: body}, true
		}
		return &ParsedSignifier{
			Inducer: InducerHalt,
			Target:  strings.TrimSpace(body[:idx]),
			Payload: map[string]string{"reason": strings.TrimSpace(body[idx+1:])},
		}, true
	}

	return nil, false
}

// Emit round-trips a ParsedSignifier back to its textual form, so parsers
// that re-emit output (e.g. a streaming relay) reproduce the same marker.
func (s ParsedSignifier) Emit() string {
	switch s.Inducer {
	case InducerContinue:
		if len(s.Payload) == 0 {
			return fmt.Sprintf("%s%s]", continueMark, s.Target)
		}
		var kvs []string
		for k, v := range s.Payload {
			kvs = append(kvs, fmt.Sprintf("%s=%s", k, v))
		}
		return fmt.Sprintf("%s%s,%s]", continueMark, s.Target, strings.Join(kvs, ","))
	case InducerHalt:
		reason := s.Payload["reason"]
		return fmt.Sprintf("%s%s:%s]", haltMark, s.Target, reason)
	default:
		return ""
	}
}
