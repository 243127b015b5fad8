// Package main provides the CLI entrypoint for examclock.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/verte-zerg/examclock/internal/config"
	"github.com/verte-zerg/examclock/internal/history"
	"github.com/verte-zerg/examclock/internal/logging"
	"github.com/verte-zerg/examclock/internal/model"
	"github.com/verte-zerg/examclock/internal/plain"
	"github.com/verte-zerg/examclock/internal/store"
	"github.com/verte-zerg/examclock/internal/ticker"
	"github.com/verte-zerg/examclock/internal/timing"
	"github.com/verte-zerg/examclock/internal/tui"
	"github.com/verte-zerg/examclock/internal/validate"
)

const (
	defaultLayout   = string(model.LayoutFull)
	defaultLogLevel = "info"
	recordTimeout   = 5 * time.Second
)

var componentFlags = []string{"qualification", "code", "title", "centre", "start", "end", "extra"}

var (
	compQualification string
	compCode          string
	compTitle         string
	compCentre        string
	compStart         string
	compEnd           string
	compExtra         int
	sheetPath         string

	presentLayout    string
	presentNoFull    bool
	presentPlain     bool
	presentExitWhen  bool
	presentNoHistory bool
	presentVerbose   bool

	checkAt      string
	historySince string
	historyLast  int
)

var errNotInteractive = errors.New("stdout is not a terminal")

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "examclock",
		Short:         "Exam timer for the front of the exam room",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPresentCmd,
	}

	addComponentFlags(rootCmd)
	rootCmd.Flags().StringVar(&presentLayout, "layout", defaultLayout, "presenter layout: full or compact")
	rootCmd.Flags().BoolVar(&presentNoFull, "no-fullscreen", false, "draw inline instead of on the alternate screen")
	rootCmd.Flags().BoolVar(&presentPlain, "plain", false, "print status lines instead of the interactive presenter")
	rootCmd.Flags().BoolVar(&presentExitWhen, "exit-when-finished", false, "stop plain output once every component has finished")
	rootCmd.Flags().BoolVar(&presentNoHistory, "no-history", false, "do not write the invigilation log")
	rootCmd.Flags().BoolVar(&presentVerbose, "verbose", false, "debug logging")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

func addComponentFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&compQualification, "qualification", "", "qualification, e.g. GCSE")
	cmd.Flags().StringVar(&compCode, "code", "", "component code, e.g. J560/01")
	cmd.Flags().StringVar(&compTitle, "title", "", "component title")
	cmd.Flags().StringVar(&compCentre, "centre", "", "centre number")
	cmd.Flags().StringVar(&compStart, "start", "", "start time (HH:MM)")
	cmd.Flags().StringVar(&compEnd, "end", "", "finish time (HH:MM)")
	cmd.Flags().IntVar(&compExtra, "extra", 0, "extra time in minutes")
	cmd.Flags().StringVar(&sheetPath, "sheet", "", "TOML exam sheet with one or two [[component]] tables")
}

func runPresentCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "layout", &presentLayout, fileCfg.Present.Layout)
	applyInvertedConfig(cmd, "no-fullscreen", &presentNoFull, fileCfg.Present.Fullscreen)
	applyInvertedConfig(cmd, "no-history", &presentNoHistory, fileCfg.Present.History)
	bigClock, showProgress := true, true
	applyBoolConfig(&bigClock, fileCfg.Present.BigClock)
	applyBoolConfig(&showProgress, fileCfg.Present.Progress)
	logLevel, logPath := defaultLogLevel, ""
	if fileCfg.Log.Level != nil {
		logLevel = *fileCfg.Log.Level
	}
	if fileCfg.Log.Path != nil {
		logPath = *fileCfg.Log.Path
	}
	if presentVerbose {
		logLevel = "debug"
	}

	layout, err := model.ParseLayout(presentLayout)
	if err != nil {
		return fmt.Errorf("--layout: %w", err)
	}
	cfg := model.PresentConfig{
		Layout:       layout,
		Fullscreen:   !presentNoFull,
		BigClock:     bigClock,
		ShowProgress: showProgress,
		History:      !presentNoHistory,
	}

	logger := newLogger(logPath, logLevel)
	defer func() {
		_ = logger.Sync()
	}()

	components, err := resolveComponents(cmd)
	if err != nil {
		return err
	}
	complete := len(components) > 0 && validate.Components(components) == nil

	plainMode := presentPlain
	if !plainMode && !term.IsTerminal(int(os.Stdout.Fd())) {
		logErrf("full-screen unavailable: %v; printing status lines instead\n", errNotInteractive)
		logger.Warn("falling back to plain output", zap.Error(errNotInteractive))
		plainMode = true
	}
	if plainMode && !complete {
		if len(components) == 0 {
			return fmt.Errorf("plain output needs a complete exam: use --sheet or the component flags")
		}
		return validate.Components(components)
	}

	var recorder tui.RunRecorder
	if cfg.History {
		st, err := store.Open(config.DefaultDBPath())
		if err != nil {
			logErrf("failed to open invigilation log, continuing without it: %v\n", err)
			logger.Error("failed to open db", zap.Error(err))
		} else {
			defer func() {
				if cerr := st.Close(); cerr != nil {
					logErrf("failed to close db: %v\n", cerr)
				}
			}()
			recorder = st
		}
	}

	if plainMode {
		for _, c := range components {
			for _, w := range validate.Warnings(c) {
				logErrln("warning: " + w)
			}
		}
		return runPlain(os.Stdout, components, cfg, recorder, logger)
	}

	app, err := tui.NewApp(tui.AppOptions{
		Components: components,
		Present:    complete,
		Config:     cfg,
		Clock:      timing.SystemClock{},
		Recorder:   recorder,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("failed to open presenter: %w", err)
	}
	opts := []tea.ProgramOption{}
	if cfg.Fullscreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(app, opts...)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return app.Err()
}

func runPlain(w io.Writer, components []model.Component, cfg model.PresentConfig, recorder tui.RunRecorder, logger *zap.Logger) error {
	presenter, err := plain.New(w, components, presentExitWhen)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := timing.SystemClock{}
	openedAt := clock.Now()
	logger.Info("plain presentation opened", zap.Int("components", len(components)))
	driver := ticker.New(clock, time.Second, presenter.Tick)
	runErr := driver.Run(ctx)
	closedAt := clock.Now()
	logger.Info("plain presentation closed", zap.Duration("open_for", closedAt.Sub(openedAt)))

	if recorder != nil {
		run := model.RunRecord{
			OpenedAt:   openedAt,
			ClosedAt:   closedAt,
			Layout:     cfg.Layout,
			Fullscreen: false,
			Components: tui.RunComponents(components, presenter.Last()),
		}
		recordCtx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if _, err := recorder.InsertRun(recordCtx, run); err != nil {
			logger.Error("failed to record presentation", zap.Error(err))
		}
	}

	if err := presenter.Err(); err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func newLogger(path, level string) *zap.Logger {
	if path == "" {
		path = config.DefaultLogPath()
	}
	logger, err := logging.New(path, level)
	if err != nil {
		logErrf("failed to open log, continuing without it: %v\n", err)
		return logging.Nop()
	}
	return logger
}

// resolveComponents reads components from --sheet or the component flags.
// It returns nil when neither was given.
func resolveComponents(cmd *cobra.Command) ([]model.Component, error) {
	flagged := false
	for _, name := range componentFlags {
		if cmd.Flags().Changed(name) {
			flagged = true
			break
		}
	}
	if sheetPath != "" {
		if flagged {
			return nil, fmt.Errorf("--sheet cannot be combined with component flags")
		}
		sheet, err := config.LoadSheet(sheetPath)
		if err != nil {
			return nil, err
		}
		if len(sheet.Components) == 0 {
			return nil, fmt.Errorf("sheet %s has no [[component]] tables", sheetPath)
		}
		return sheet.Components, nil
	}
	if !flagged {
		return nil, nil
	}
	c := model.Component{
		Qualification: compQualification,
		Code:          compCode,
		Title:         compTitle,
		CentreNumber:  compCentre,
		StartTime:     compStart,
		EndTime:       compEnd,
		ExtraTime:     compExtra,
	}
	return []model.Component{c.Trimmed()}, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate an exam and print its timings",
		Args:  cobra.NoArgs,
		RunE:  runCheckCmd,
	}
	addComponentFlags(cmd)
	cmd.Flags().StringVar(&checkAt, "at", "", "evaluate at this time today (HH:MM) instead of now")
	return cmd
}

func runCheckCmd(cmd *cobra.Command, _ []string) error {
	components, err := resolveComponents(cmd)
	if err != nil {
		return err
	}
	if len(components) == 0 {
		return fmt.Errorf("nothing to check: use --sheet or the component flags")
	}
	if err := validate.Components(components); err != nil {
		return err
	}
	now, err := checkTime(time.Now(), checkAt)
	if err != nil {
		return err
	}
	return writeCheck(cmd.OutOrStdout(), cmd.ErrOrStderr(), components, now)
}

// checkTime returns now, or today's HH:MM in now's location when at is set.
func checkTime(now time.Time, at string) (time.Time, error) {
	if at == "" {
		return now, nil
	}
	hour, minute, err := timing.ParseClock(at)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at value: %w", err)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location()), nil
}

func writeCheck(out, errOut io.Writer, components []model.Component, now time.Time) error {
	derived := make([]timing.Derived, len(components))
	for i, c := range components {
		tm, err := c.Timing()
		if err != nil {
			return fmt.Errorf("component %d: %w", i+1, err)
		}
		derived[i] = timing.Derive(tm, now)
		for _, w := range validate.Warnings(c) {
			if _, err := fmt.Fprintln(errOut, "warning: "+w); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
	}
	for _, line := range plain.Lines(now, components, derived) {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the invigilation log",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N presentations")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	filter, err := historyFilter(historySince, historyLast)
	if err != nil {
		return err
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	report, err := history.BuildReport(cmd.Context(), st, filter)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	return history.Render(cmd.OutOrStdout(), report)
}

func historyFilter(since string, last int) (model.HistoryFilter, error) {
	if last < 0 {
		return model.HistoryFilter{}, fmt.Errorf("--last must be >= 0")
	}
	filter := model.HistoryFilter{Last: last}
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return model.HistoryFilter{}, fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &parsed
	}
	return filter, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

// applyInvertedConfig maps a positive config switch onto a --no-* flag.
func applyInvertedConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = !*value
}

func applyBoolConfig(target, value *bool) {
	if target == nil || value == nil {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# examclock configuration
# Uncomment a value to enable it. CLI flags override config values.

[present]
# layout = %q          # full or compact
# fullscreen = true       # Use the alternate screen (--no-fullscreen)
# big-clock = true        # Block-digit wall clock when there is room
# progress = true         # Show progress bars
# history = true          # Write the invigilation log (--no-history)

[log]
# level = %q            # debug, info, warn or error (--verbose for debug)
# path = "%s"
`,
		defaultLayout,
		defaultLogLevel,
		config.DefaultLogPath(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
