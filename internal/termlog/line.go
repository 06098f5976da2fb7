package termlog

import "time"

type Severity string

const (
	SeverityCommand Severity = "command"
	SeverityOutput  Severity = "output"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

const (
	DefaultCapacity = 5
	DefaultFade     = 500 * time.Millisecond
	LineLifetime    = 3000 * time.Millisecond
)

// DefaultTTL is the lifetime of an ephemeral line of the given severity.
// Error lines stay the longest.
func DefaultTTL(sev Severity) time.Duration {
	switch sev {
	case SeverityCommand:
		return LineLifetime
	case SeveritySuccess:
		return 2000 * time.Millisecond
	case SeverityError:
		return 4000 * time.Millisecond
	default:
		return 2500 * time.Millisecond
	}
}

type State string

const (
	StateVisible   State = "visible"
	StateFadingOut State = "fading_out"
	StateRemoved   State = "removed"
)

var lineTransitions = map[State]map[State]bool{
	StateVisible: {
		StateFadingOut: true,
		StateRemoved:   true,
	},
	StateFadingOut: {
		StateRemoved: true,
	},
}

func CanTransition(from State, to State) bool {
	if from == to {
		return true
	}
	return lineTransitions[from][to]
}

// LineRef identifies one appended line.
type LineRef string

type Line struct {
	ID        LineRef
	Text      string
	Severity  Severity
	CreatedAt time.Time
	TTL       time.Duration
	State     State
}

// Ephemeral reports whether the line has a scheduled expiry.
func (l Line) Ephemeral() bool {
	return l.TTL > 0
}
