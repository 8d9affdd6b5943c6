package report

import "fmt"

// Mode selects what subset of matched items constitutes a report and
// how often pushes happen. The set is closed; anything else is a
// configuration error, never a silent fallback.
type Mode int

const (
	// ModeIncremental reports only titles not yet seen today; a cycle
	// with nothing new produces no realtime report. It additionally
	// emits one daily summary, making it the only mode with two
	// report types per day.
	ModeIncremental Mode = iota

	// ModeCurrent reports the current listing's matches within the
	// rank threshold every cycle, with a separate new-items section.
	ModeCurrent

	// ModeDaily only accumulates during cycles; the report covers the
	// whole day's matches and is built on demand.
	ModeDaily
)

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "incremental":
		return ModeIncremental, nil
	case "current":
		return ModeCurrent, nil
	case "daily":
		return ModeDaily, nil
	default:
		return 0, fmt.Errorf("unknown report mode %q", s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeIncremental:
		return "incremental"
	case ModeCurrent:
		return "current"
	case ModeDaily:
		return "daily"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// CycleReportType is the label for reports produced per poll cycle.
func (m Mode) CycleReportType() string {
	switch m {
	case ModeIncremental:
		return "realtime incremental"
	case ModeCurrent:
		return "current snapshot"
	default:
		return ""
	}
}

// SummaryReportType is the label for day-level summary reports.
func (m Mode) SummaryReportType() string {
	if m == ModeCurrent {
		return "current snapshot summary"
	}
	return "daily summary"
}
