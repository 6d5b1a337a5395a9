package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/atb/internal/compiler"
	"github.com/roach88/atb/internal/engine"
	"github.com/roach88/atb/internal/store"
)

// defaultLogLines is how many log entries `log` prints without an argument.
const defaultLogLines = 10

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Database  string
	Encounter string

	// IDGenerator overrides the unit id source (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator engine.IDGenerator

	// Scheduler overrides the auto-advance scheduler (for testing). When set,
	// deferred work is drained after every command instead of by a
	// background event loop.
	Scheduler engine.Scheduler
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	return newPlayCommand(&PlayOptions{RootOptions: rootOpts})
}

func newPlayCommand(opts *PlayOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Run a battle interactively",
		Long: `Run a battle from a line-oriented prompt.

The battle is loaded from the database (created if missing) and saved
after every command. A new battle can be seeded from a CUE encounter.

Commands:
  add NAME [player|enemy] [INITIATIVE] add a unit
  remove NAME                           remove a unit
  step SECONDS                          advance the clock
  advance                               run the clock until someone is ready
  act [NAME]                            start an action (default: current unit)
  cancel NAME                           cancel a cast
  select NAME                           choose who acts next
  auto on|off                           auto-advance when nobody is ready
  separate on|off                       independent recovery duration
  action SECONDS                        action (cast) duration
  recovery SECONDS                      recovery duration
  defaults                              restore 3s/3s durations
  reset                                 clear the battle (asks to confirm)
  roster                                show the battle
  log [N]                               show the last N log entries
  quit                                  leave

Example:
  atb play --db ./battle.db
  atb play --db ./battle.db --encounter ./ambush.cue`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Encounter, "encounter", "", "CUE encounter used when the database holds no battle")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runPlay(opts *PlayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	e, err := openBattle(ctx, opts, st, formatter)
	if err != nil {
		return err
	}

	s := &session{
		engine:    e,
		store:     st,
		formatter: formatter,
		in:        bufio.NewScanner(cmd.InOrStdin()),
		manual:    opts.Scheduler != nil,
	}

	if s.manual {
		defer e.Stop()
	} else {
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- e.Run(runCtx) }()
		defer func() {
			cancel()
			if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("event loop stopped", "error", err)
			}
		}()
	}

	if err := s.save(ctx); err != nil {
		return err
	}
	if err := s.loop(ctx); err != nil {
		return err
	}
	// Capture ticks that ran after the last command.
	return s.save(ctx)
}

// openBattle restores the stored battle, or starts a new one from the
// encounter file when the database is empty.
func openBattle(ctx context.Context, opts *PlayOptions, st *store.Store, f *OutputFormatter) (*engine.Engine, error) {
	engOpts := []engine.Option{engine.WithLogger(slog.Default())}
	if opts.IDGenerator != nil {
		engOpts = append(engOpts, engine.WithIDGenerator(opts.IDGenerator))
	}
	if opts.Scheduler != nil {
		engOpts = append(engOpts, engine.WithScheduler(opts.Scheduler))
	}
	e := engine.New(engOpts...)

	state, found, err := st.Load(ctx)
	if err != nil {
		e.Stop()
		return nil, WrapExitError(ExitCommandError, "failed to load battle", err)
	}

	if found {
		if err := e.Restore(state); err != nil {
			e.Stop()
			return nil, WrapExitError(ExitCommandError, "stored battle is invalid", err)
		}
		if opts.Encounter != "" {
			f.VerboseLog("Database already holds a battle; ignoring %s", opts.Encounter)
		}
		slog.Info("battle restored", "units", len(state.Units), "now_ns", state.NowNS)
		return e, nil
	}

	if opts.Encounter != "" {
		enc, err := compiler.LoadEncounter(opts.Encounter)
		if err != nil {
			e.Stop()
			return nil, WrapExitError(ExitCommandError, "failed to load encounter", err)
		}
		if err := enc.Apply(e); err != nil {
			e.Stop()
			return nil, WrapExitError(ExitCommandError, "failed to apply encounter", err)
		}
		slog.Info("encounter loaded", "name", enc.Name, "units", len(enc.Units))
	}
	return e, nil
}

// session is one interactive play loop.
type session struct {
	engine    *engine.Engine
	store     *store.Store
	formatter *OutputFormatter
	in        *bufio.Scanner
	manual    bool
}

// reply is the result of one command.
type reply struct {
	Message string      `json:"message,omitempty"`
	Battle  *BattleView `json:"battle,omitempty"`
	Log     []string    `json:"log,omitempty"`
}

// usageError reports a malformed command line. It is printed and the loop
// continues.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

var errQuit = errors.New("quit")

func (s *session) loop(ctx context.Context) error {
	for {
		s.prompt()
		if !s.in.Scan() {
			if err := s.in.Err(); err != nil {
				return WrapExitError(ExitCommandError, "failed to read input", err)
			}
			return nil
		}

		fields := strings.Fields(s.in.Text())
		if len(fields) == 0 {
			continue
		}

		r, mutated, err := s.dispatch(fields[0], fields[1:])
		if errors.Is(err, errQuit) {
			return nil
		}
		if err := s.report(r, err); err != nil {
			return err
		}

		if mutated {
			if err := s.save(ctx); err != nil {
				return err
			}
		}
	}
}

func (s *session) prompt() {
	if s.formatter.Format == "text" {
		fmt.Fprint(s.formatter.Writer, "atb> ")
	}
}

// report prints a command result. Rejections and usage errors are shown
// and the session continues; any other error ends it.
func (s *session) report(r reply, err error) error {
	var rej *engine.RejectionError
	var usage *usageError
	switch {
	case err == nil:
	case errors.As(err, &rej):
		return s.formatter.Error(string(rej.Code), rej.Message, nil)
	case errors.As(err, &usage):
		return s.formatter.Error(ErrCodeCommand, usage.msg, nil)
	default:
		return WrapExitError(ExitCommandError, "command failed", err)
	}

	if s.formatter.Format == "json" {
		return s.formatter.Success(r)
	}
	w := s.formatter.Writer
	if r.Message != "" {
		fmt.Fprintln(w, r.Message)
	}
	if r.Battle != nil {
		writeBattle(w, *r.Battle)
	}
	writeLog(w, r.Log)
	return nil
}

// save drains deferred work (manual scheduling only) and persists the battle.
func (s *session) save(ctx context.Context) error {
	if s.manual {
		s.engine.Drain()
	}
	hash, err := s.store.Save(ctx, s.engine.Snapshot())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to save battle", err)
	}
	slog.Debug("battle saved", "hash", hash)
	return nil
}

// dispatch runs one command. mutated reports whether the battle may have
// changed and needs saving.
func (s *session) dispatch(name string, args []string) (r reply, mutated bool, err error) {
	e := s.engine

	switch strings.ToLower(name) {
	case "quit", "exit":
		return reply{}, false, errQuit

	case "help":
		return reply{Message: "Commands: add remove step advance act cancel select auto separate action recovery defaults reset roster log quit"}, false, nil

	case "roster":
		v := battleView(e, 0)
		return reply{Battle: &v}, false, nil

	case "log":
		n := defaultLogLines
		if len(args) > 0 {
			n, err = strconv.Atoi(args[0])
			if err != nil || n < 0 {
				return reply{}, false, usagef("log: %q is not a count", args[0])
			}
		}
		return reply{Log: logLinesOf(e, n)}, false, nil

	case "add":
		name, role, initiative, err := parseAddArgs(args)
		if err != nil {
			return reply{}, false, err
		}
		u, err := e.AddUnit(name, role, initiative)
		if err != nil {
			return reply{}, false, err
		}
		return reply{Message: fmt.Sprintf("Added %s %s.", u.Role, u.Name)}, true, nil

	case "remove":
		u, err := s.unitArg("remove", args)
		if err != nil {
			return reply{}, false, err
		}
		if err := e.RemoveUnit(u.ID); err != nil {
			return reply{}, false, err
		}
		return reply{Message: fmt.Sprintf("Removed %s.", u.Name)}, true, nil

	case "step":
		d, err := secondsArg("step", args)
		if err != nil {
			return reply{}, false, err
		}
		if err := e.Step(d); err != nil {
			return reply{}, false, err
		}
		return reply{Message: fmt.Sprintf("Time is %s.", clockText(e))}, true, nil

	case "advance":
		if err := e.AdvanceToNextReady(); err != nil {
			return reply{}, false, err
		}
		return reply{Message: "Advancing until a unit is ready."}, true, nil

	case "act":
		req := actionRequest(e.Settings())
		if len(args) > 0 {
			u, err := s.unitArg("act", args)
			if err != nil {
				return reply{}, false, err
			}
			req.UnitID = u.ID
		}
		u, err := e.ApplyAction(req)
		if err != nil {
			return reply{}, false, err
		}
		return reply{Message: fmt.Sprintf("%s: %s", u.Name, u.Status())}, true, nil

	case "cancel":
		u, err := s.unitArg("cancel", args)
		if err != nil {
			return reply{}, false, err
		}
		if err := e.CancelCast(u.ID); err != nil {
			return reply{}, false, err
		}
		return reply{Message: fmt.Sprintf("%s cancelled.", u.Name)}, true, nil

	case "select":
		u, err := s.unitArg("select", args)
		if err != nil {
			return reply{}, false, err
		}
		if err := e.SelectUnit(u.ID); err != nil {
			return reply{}, false, err
		}
		return reply{Message: fmt.Sprintf("Selected %s.", u.Name)}, true, nil

	case "auto":
		on, err := onOffArg("auto", args)
		if err != nil {
			return reply{}, false, err
		}
		e.SetAutoAdvance(on)
		return reply{Message: "Auto-advance " + onOff(on) + "."}, true, nil

	case "separate":
		on, err := onOffArg("separate", args)
		if err != nil {
			return reply{}, false, err
		}
		e.SetSeparateRecovery(on)
		return reply{Message: "Separate recovery " + onOff(on) + "."}, true, nil

	case "action":
		d, err := secondsArg("action", args)
		if err != nil {
			return reply{}, false, err
		}
		e.SetActionDuration(d)
		return reply{Message: "Action duration " + engine.FormatSeconds(d) + "."}, true, nil

	case "recovery":
		d, err := secondsArg("recovery", args)
		if err != nil {
			return reply{}, false, err
		}
		e.SetRecoveryDuration(d)
		return reply{Message: "Recovery duration " + engine.FormatSeconds(d) + "."}, true, nil

	case "defaults":
		e.ResetActionDefaults()
		return reply{Message: "Action and recovery reset to defaults."}, true, nil

	case "reset":
		if !s.confirm("Reset the battle? This removes every unit and the log. Type yes to confirm: ") {
			return reply{Message: "Reset cancelled."}, false, nil
		}
		e.ResetAll()
		return reply{Message: "Battle reset."}, true, nil

	default:
		return reply{}, false, usagef("unknown command %q (try help)", name)
	}
}

// confirm reads the next input line and reports whether it is "yes".
func (s *session) confirm(question string) bool {
	fmt.Fprint(s.formatter.GetErrWriter(), question)
	if !s.in.Scan() {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(s.in.Text()), "yes")
}

// unitArg resolves the remaining arguments as a unit name.
func (s *session) unitArg(cmd string, args []string) (engine.Unit, error) {
	if len(args) == 0 {
		return engine.Unit{}, usagef("%s: missing unit name", cmd)
	}
	name := strings.Join(args, " ")
	u, ok := s.engine.FindUnit(name)
	if !ok {
		return engine.Unit{}, usagef("%s: no unit named %q", cmd, name)
	}
	return u, nil
}

// parseAddArgs splits "NAME... [ROLE] [INITIATIVE]". A trailing integer is
// the initiative; a trailing player/enemy word is the role.
func parseAddArgs(args []string) (string, engine.Role, int, error) {
	role := engine.RolePlayer
	initiative := 0

	if n := len(args); n > 1 {
		if v, err := strconv.Atoi(args[n-1]); err == nil {
			initiative = max(v, 0)
			args = args[:n-1]
		}
	}
	if n := len(args); n > 1 {
		switch strings.ToLower(args[n-1]) {
		case "player", "enemy":
			role = engine.ParseRole(args[n-1])
			args = args[:n-1]
		}
	}

	name := strings.Join(args, " ")
	if name == "" {
		return "", "", 0, usagef("add: missing unit name")
	}
	return name, role, initiative, nil
}

func secondsArg(cmd string, args []string) (time.Duration, error) {
	if len(args) != 1 {
		return 0, usagef("%s: expected a number of seconds", cmd)
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, usagef("%s: %q is not a number", cmd, args[0])
	}
	return engine.Seconds(v), nil
}

func onOffArg(cmd string, args []string) (bool, error) {
	if len(args) == 1 {
		switch strings.ToLower(args[0]) {
		case "on", "true", "yes":
			return true, nil
		case "off", "false", "no":
			return false, nil
		}
	}
	return false, usagef("%s: expected on or off", cmd)
}

func actionRequest(s engine.Settings) engine.ActionRequest {
	return engine.ActionRequest{
		Action:           s.Action,
		Recovery:         s.Recovery,
		SeparateRecovery: s.SeparateRecovery,
	}
}

func clockText(e *engine.Engine) string {
	return fmt.Sprintf("%.1fs", e.Now().Seconds())
}
