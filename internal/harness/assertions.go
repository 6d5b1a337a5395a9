package harness

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/roach88/atb/internal/engine"
)

// recentLogLines is how much of the event log an AssertionError carries.
const recentLogLines = 8

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string           // Assertion type for categorization
	Expected string           // Human-readable expected outcome
	Actual   string           // Human-readable actual outcome
	Log      []engine.LogEntry // Most recent log entries, newest first
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Log) > 0 {
		fmt.Fprintf(&buf, "\nRecent log:\n")
		for _, entry := range e.Log {
			fmt.Fprintf(&buf, "  %s\n", entry)
		}
	}

	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the engine's current
// state. Returns a slice of error messages for failed assertions.
func EvaluateAssertions(e *engine.Engine, assertions []Assertion) []string {
	var errs []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertNow:
			err = assertNow(e, a)
		case AssertReady:
			err = assertReady(e, a)
		case AssertCurrent:
			err = assertCurrent(e, a)
		case AssertTimers:
			err = assertTimers(e, a)
		case AssertRosterOrder:
			err = assertRosterOrder(e, a)
		case AssertLogContains:
			err = assertLogContains(e, a)
		case AssertLogOrder:
			err = assertLogOrder(e, a)
		case AssertLogCount:
			err = assertLogCount(e, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}

func failure(e *engine.Engine, typ, expected, actual string) *AssertionError {
	log := e.Log()
	if len(log) > recentLogLines {
		log = log[:recentLogLines]
	}
	return &AssertionError{Type: typ, Expected: expected, Actual: actual, Log: log}
}

func assertNow(e *engine.Engine, a Assertion) error {
	want := seconds(a.Seconds)
	if got := e.Now(); got != want {
		return failure(e, AssertNow, formatClock(want), formatClock(got))
	}
	return nil
}

func assertReady(e *engine.Engine, a Assertion) error {
	var got []string
	for _, u := range e.Units() {
		if u.Ready() {
			got = append(got, u.Name)
		}
	}
	if !namesEqual(a.Units, got) {
		return failure(e, AssertReady, formatNames(a.Units), formatNames(got))
	}
	return nil
}

func assertCurrent(e *engine.Engine, a Assertion) error {
	got := ""
	if u, ok := e.CurrentUnit(); ok {
		got = u.Name
	}
	if got != a.Unit {
		return failure(e, AssertCurrent, quoteOrNone(a.Unit), quoteOrNone(got))
	}
	return nil
}

func assertTimers(e *engine.Engine, a Assertion) error {
	u, ok := e.FindUnit(a.Unit)
	if !ok {
		return failure(e, AssertTimers, fmt.Sprintf("unit %q on the roster", a.Unit), "not found")
	}

	var want, got []string
	if a.Active != nil {
		want = append(want, "active="+formatClock(seconds(*a.Active)))
		got = append(got, "active="+formatClock(u.Active))
	}
	if a.Passive != nil {
		want = append(want, "passive="+formatClock(seconds(*a.Passive)))
		got = append(got, "passive="+formatClock(u.Passive))
	}

	activeOK := a.Active == nil || u.Active == seconds(*a.Active)
	passiveOK := a.Passive == nil || u.Passive == seconds(*a.Passive)
	if !activeOK || !passiveOK {
		return failure(e, AssertTimers,
			fmt.Sprintf("%s %s", a.Unit, strings.Join(want, " ")),
			fmt.Sprintf("%s %s", a.Unit, strings.Join(got, " ")))
	}
	return nil
}

func assertRosterOrder(e *engine.Engine, a Assertion) error {
	var got []string
	for _, u := range e.SortedRoster() {
		got = append(got, u.Name)
	}
	if !namesEqual(a.Units, got) {
		return failure(e, AssertRosterOrder, formatNames(a.Units), formatNames(got))
	}
	return nil
}

func assertLogContains(e *engine.Engine, a Assertion) error {
	for _, entry := range e.Log() {
		if strings.Contains(entry.Message, a.Message) {
			return nil
		}
	}
	return failure(e, AssertLogContains, fmt.Sprintf("a log entry containing %q", a.Message), "not found in log")
}

// assertLogOrder checks that each message appears after the previous one in
// chronological order. Entries in between are allowed.
func assertLogOrder(e *engine.Engine, a Assertion) error {
	log := e.Log()
	slices.Reverse(log) // oldest first

	pos := 0
	for _, want := range a.Messages {
		found := false
		for pos < len(log) {
			msg := log[pos].Message
			pos++
			if strings.Contains(msg, want) {
				found = true
				break
			}
		}
		if !found {
			return failure(e, AssertLogOrder,
				fmt.Sprintf("messages in order %q", a.Messages),
				fmt.Sprintf("%q missing or out of order", want))
		}
	}
	return nil
}

func assertLogCount(e *engine.Engine, a Assertion) error {
	got := 0
	for _, entry := range e.Log() {
		if a.Message == "" || strings.Contains(entry.Message, a.Message) {
			got++
		}
	}
	if got != a.Count {
		what := "log entries"
		if a.Message != "" {
			what = fmt.Sprintf("log entries containing %q", a.Message)
		}
		return failure(e, AssertLogCount, fmt.Sprintf("%d %s", a.Count, what), fmt.Sprintf("%d", got))
	}
	return nil
}

// namesEqual treats nil and empty as equal.
func namesEqual(want, got []string) bool {
	if len(want) == 0 && len(got) == 0 {
		return true
	}
	return slices.Equal(want, got)
}

func formatNames(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return "[" + strings.Join(names, ", ") + "]"
}

func quoteOrNone(name string) string {
	if name == "" {
		return "(none)"
	}
	return fmt.Sprintf("%q", name)
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%gs", d.Seconds())
}
