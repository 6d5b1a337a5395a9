package harness

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/roach88/atb/internal/compiler"
	"github.com/roach88/atb/internal/engine"
	"github.com/roach88/atb/internal/snapshot"
	"github.com/roach88/atb/internal/testutil"
)

// MaxSettleTicks bounds how many scheduler ticks one step may consume. A
// scenario that needs more is almost certainly stuck in an auto-advance run
// that can never reach a ready unit.
const MaxSettleTicks = 100_000

// ErrNotSettled is returned when auto-advance is still running after
// MaxSettleTicks ticks.
var ErrNotSettled = errors.New("auto-advance did not settle")

// Harness is the test execution engine.
// It runs scenarios with sequential ids and virtual time.
type Harness struct {
	engine *engine.Engine
	sched  *engine.ManualScheduler
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger handed to the engine. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// Run executes a scenario on a fresh engine and returns the result.
//
// Execution flow:
// 1. Create a fresh engine with sequential ids and a manual scheduler
// 2. Apply the encounter, if any
// 3. Execute steps, settling deferred work after each one
// 4. Evaluate assertions against the final battle
//
// Step expectation and assertion failures are reported in the Result. An
// error is returned only when the scenario cannot be executed at all.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		sched:  engine.NewManualScheduler(),
		logger: testutil.DiscardLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.engine = engine.New(
		engine.WithIDGenerator(testutil.NewSequentialGenerator("unit")),
		engine.WithScheduler(h.sched),
		engine.WithLogger(h.logger),
	)
	defer h.engine.Stop()

	if scenario.Encounter != "" {
		enc, err := compiler.LoadEncounter(scenario.Encounter)
		if err != nil {
			return nil, fmt.Errorf("load encounter: %w", err)
		}
		if err := enc.Apply(h.engine); err != nil {
			return nil, err
		}
		if err := h.settle(); err != nil {
			return nil, fmt.Errorf("encounter: %w", err)
		}
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		err := h.execute(step)
		if settleErr := h.settle(); settleErr != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Do, settleErr)
		}
		if err != nil && !engine.IsRejected(err) {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Do, err)
		}

		ev := TraceEvent{
			Index:   i,
			Do:      step.Do,
			Unit:    step.Unit,
			Outcome: OutcomeOK,
			NowNS:   int64(h.engine.Now()),
		}
		if err != nil {
			ev.Outcome = OutcomeRejected
			ev.Code = string(engine.RejectionCodeOf(err))
		}
		result.AddTrace(ev)

		if msg := checkExpectation(i, step, err); msg != "" {
			result.AddError(msg)
		}
	}

	for _, msg := range EvaluateAssertions(h.engine, scenario.Assertions) {
		result.AddError(msg)
	}

	result.Final = h.engine.Snapshot()
	hash, err := snapshot.Hash(result.Final)
	if err != nil {
		return nil, fmt.Errorf("hash final state: %w", err)
	}
	result.StateHash = hash

	return result, nil
}

// execute runs one command. Units are looked up by name; an unknown name is
// passed through as an id so the engine rejects it like any stale id.
func (h *Harness) execute(st Step) error {
	e := h.engine

	switch st.Do {
	case CmdAdd:
		_, err := e.AddUnit(st.Unit, engine.ParseRole(st.Role), st.Initiative)
		return err

	case CmdRemove:
		return e.RemoveUnit(h.unitID(st.Unit))

	case CmdStep:
		return e.Step(seconds(st.Seconds))

	case CmdAdvance:
		return e.AdvanceToNextReady()

	case CmdAct:
		return h.act(st)

	case CmdCancel:
		return e.CancelCast(h.unitID(st.Unit))

	case CmdSelect:
		return e.SelectUnit(h.unitID(st.Unit))

	case CmdSet:
		if st.SeparateRecovery != nil {
			e.SetSeparateRecovery(*st.SeparateRecovery)
		}
		if st.Action != nil {
			e.SetActionDuration(engine.Seconds(*st.Action))
		}
		if st.Recovery != nil {
			e.SetRecoveryDuration(engine.Seconds(*st.Recovery))
		}
		if st.AutoAdvance != nil {
			e.SetAutoAdvance(*st.AutoAdvance)
		}
		return nil

	case CmdResetDefaults:
		e.ResetActionDefaults()
		return nil

	case CmdReset:
		e.ResetAll()
		return nil

	default:
		return fmt.Errorf("unknown command %q", st.Do)
	}
}

// act applies an action using the engine's settings, with optional
// per-step overrides. A named unit is targeted directly; otherwise the action
// goes to the current unit, exactly like Engine.Act.
func (h *Harness) act(st Step) error {
	s := h.engine.Settings()
	req := engine.ActionRequest{
		Action:           s.Action,
		Recovery:         s.Recovery,
		SeparateRecovery: s.SeparateRecovery,
	}
	if st.Unit != "" {
		req.UnitID = h.unitID(st.Unit)
	}
	if st.Action != nil {
		req.Action = engine.Seconds(*st.Action)
	}
	if st.Recovery != nil {
		req.Recovery = engine.Seconds(*st.Recovery)
	}
	if st.SeparateRecovery != nil {
		req.SeparateRecovery = *st.SeparateRecovery
	}
	_, err := h.engine.ApplyAction(req)
	return err
}

// settle drains deferred work and pumps virtual time until no auto-advance
// run is in flight.
func (h *Harness) settle() error {
	for ticks := 0; ; ticks++ {
		h.engine.Drain()
		if !h.engine.Advancing() {
			return nil
		}
		if ticks >= MaxSettleTicks {
			h.engine.StopAdvance()
			return fmt.Errorf("%w after %d ticks", ErrNotSettled, ticks)
		}
		h.sched.Advance(h.engine.Cadence())
	}
}

func (h *Harness) unitID(name string) string {
	if u, ok := h.engine.FindUnit(name); ok {
		return u.ID
	}
	return name
}

// checkExpectation compares a step outcome with its expect clause and
// returns a failure message, or "" if the outcome matched.
func checkExpectation(index int, st Step, err error) string {
	switch st.Expect {
	case ExpectAny:
		return ""

	case ExpectRejected:
		if err == nil {
			return fmt.Sprintf("steps[%d] %s: expected rejection, command succeeded", index, st.Do)
		}
		if got := engine.RejectionCodeOf(err); st.Code != "" && string(got) != st.Code {
			return fmt.Sprintf("steps[%d] %s: expected rejection %s, got %s", index, st.Do, st.Code, got)
		}
		return ""

	default:
		if err != nil {
			return fmt.Sprintf("steps[%d] %s: unexpected rejection: %v", index, st.Do, err)
		}
		return ""
	}
}

// seconds converts a scenario value without clamping, so a zero or negative
// step reaches the engine and is rejected there.
func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
