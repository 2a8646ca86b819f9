// Package analyzerdriver invokes the external, single-function-at-a-time
// analyzer once per unit and classifies its outcome (§4.H).
package analyzerdriver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/prokopk1n/nullannotate/pkg/budget"
	"github.com/prokopk1n/nullannotate/pkg/unitplan"
)

// Outcome classifies the result of a single analyzer invocation (§4.H).
type Outcome int

const (
	// Success means the analyzer's log contains the incomplete-analysis
	// sentinel — the expected, successful termination of the underlying
	// exhaustive search.
	Success Outcome = iota
	// Failure means the process exited zero without the sentinel.
	Failure
	// AnalyzerError means the process exited nonzero or could not start.
	AnalyzerError
	// TimedOut means the wall-clock budget elapsed before the process exited.
	TimedOut
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case AnalyzerError:
		return "error"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// successSentinel is the literal string run.py greps the analyzer's combined
// log for; a verification run that reaches it ran to completion without
// finding a counterexample.
const successSentinel = "Verification result: UNKNOWN, incomplete analysis."

// Config fixes the analyzer invocation's static argument shape (§4.H),
// mirroring run.py's fixed flags.
type Config struct {
	// AnalyzerRoot is the analyzer's installation directory (its cpa.sh
	// lives at AnalyzerRoot/scripts/cpa.sh).
	AnalyzerRoot string
	// ConfigProfile names the analysis configuration (default "ldv-deref").
	ConfigProfile string
	// SpecFile names the specification file (default "default.spc").
	SpecFile string
	// PropertyPrefix is the analyzer property namespace the driver sets
	// entry-function/plan/annotation-directory overrides under (default
	// "nullDerefArgAnnotationAlgorithm").
	PropertyPrefix string
	// Debug enables distinct temp spec names and verbose console logging,
	// matching run.py's --debug flag.
	Debug bool
	Caps  budget.Caps
}

// DefaultConfig fills in the analyzer's historical defaults, leaving
// AnalyzerRoot for the caller to set.
func DefaultConfig(analyzerRoot string) Config {
	return Config{
		AnalyzerRoot:   analyzerRoot,
		ConfigProfile:  "ldv-deref",
		SpecFile:       "default.spc",
		PropertyPrefix: "nullDerefArgAnnotationAlgorithm",
		Caps:           budget.DefaultCaps(),
	}
}

// Invocation names the per-call inputs the static Config does not fix.
type Invocation struct {
	// SourcePath is the preprocessed C source file for this unit.
	SourcePath string
	// EntryFunction overrides analysis.entryFunction — the first function
	// listed in the unit plan.
	EntryFunction string
	// UnitPlanPath is the ad hoc unit-plan text file written by
	// WriteUnitPlanFile.
	UnitPlanPath string
	// ReadAnnotationsDir holds previously-computed annotations.
	ReadAnnotationsDir string
	// WriteAnnotationsDir is where new per-function records land.
	WriteAnnotationsDir string
	// LogPath is the file the combined stdout+stderr log is written to.
	LogPath string
}

// Result reports a single analyzer invocation's outcome.
type Result struct {
	Outcome  Outcome
	Duration time.Duration
	LogPath  string
}

// Run spawns the analyzer once, blocking until it exits, the wall-clock cap
// elapses, or ctx is cancelled, and classifies the outcome from its combined
// log (§4.H).
func Run(ctx context.Context, cfg Config, inv Invocation) (Result, error) {
	if err := os.MkdirAll(inv.WriteAnnotationsDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create write-annotations dir %s: %w", inv.WriteAnnotationsDir, err)
	}

	if err := os.MkdirAll(filepath.Dir(inv.LogPath), 0o755); err != nil {
		return Result{}, fmt.Errorf("create log dir for %s: %w", inv.LogPath, err)
	}

	args := buildArgs(cfg, inv)

	runCtx := ctx

	var cancel context.CancelFunc

	if cfg.Caps.WallClock > 0 {
		runCtx, cancel = context.WithTimeout(ctx, cfg.Caps.WallClock)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, filepath.Join(cfg.AnalyzerRoot, "scripts", "cpa.sh"), args...)
	cmd.Dir = cfg.AnalyzerRoot

	logFile, err := os.Create(inv.LogPath)
	if err != nil {
		return Result{}, fmt.Errorf("create log file %s: %w", inv.LogPath, err)
	}
	defer logFile.Close()

	fmt.Fprintf(logFile, "RUN %s\n\n", strings.Join(cmd.Args, " "))

	cmd.Stdout = logFile
	cmd.Stderr = logFile

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return Result{Outcome: TimedOut, Duration: duration, LogPath: inv.LogPath}, nil
	}

	if runErr != nil {
		return Result{Outcome: AnalyzerError, Duration: duration, LogPath: inv.LogPath}, nil
	}

	output, err := os.ReadFile(inv.LogPath)
	if err != nil {
		return Result{}, fmt.Errorf("read log file %s: %w", inv.LogPath, err)
	}

	if strings.Contains(string(output), successSentinel) {
		return Result{Outcome: Success, Duration: duration, LogPath: inv.LogPath}, nil
	}

	return Result{Outcome: Failure, Duration: duration, LogPath: inv.LogPath}, nil
}

// RunUnit is the common case: it writes the ad hoc unit-plan file for unit
// under workdir, then invokes the analyzer against it.
func RunUnit(ctx context.Context, cfg Config, unit unitplan.PlanUnit, sourcesRoot, readAnnotationsDir, writeAnnotationsDir, workdir string) (Result, error) {
	if len(unit.Functions) == 0 {
		return Result{}, fmt.Errorf("unit %s has no functions to analyse", unit.ObjectFile)
	}

	planPath := filepath.Join(workdir, "object_file_plan.txt")
	if err := WriteUnitPlanFile(planPath, unit); err != nil {
		return Result{}, err
	}

	sourcePath := filepath.Join(sourcesRoot, unit.ObjectFile, filepath.Base(unit.ObjectFile))
	logPath := filepath.Join(writeAnnotationsDir, unit.ObjectFile, "log.txt")

	return Run(ctx, cfg, Invocation{
		SourcePath:          sourcePath,
		EntryFunction:       unit.Functions[0].Name,
		UnitPlanPath:        planPath,
		ReadAnnotationsDir:  readAnnotationsDir,
		WriteAnnotationsDir: writeAnnotationsDir,
		LogPath:             logPath,
	})
}

func buildArgs(cfg Config, inv Invocation) []string {
	abs := func(p string) string {
		a, err := filepath.Abs(p)
		if err != nil {
			return p
		}

		return a
	}

	args := []string{
		"-config", "config/" + cfg.ConfigProfile + ".properties",
		"-spec", "config/specification/" + cfg.SpecFile,
		abs(inv.SourcePath),
		"-setprop", cfg.PropertyPrefix + ".readAnnotationDirectory=" + abs(inv.ReadAnnotationsDir),
		"-setprop", cfg.PropertyPrefix + ".writeAnnotationDirectory=" + abs(inv.WriteAnnotationsDir),
		"-setprop", "analysis.entryFunction=" + inv.EntryFunction,
		"-setprop", cfg.PropertyPrefix + ".plan=" + abs(inv.UnitPlanPath),
		"-setprop", "parser.usePreprocessor=true",
	}

	if cfg.Caps.HeapBytes > 0 {
		args = append(args, "-heap", strconv.FormatInt(cfg.Caps.HeapBytes/(1<<20), 10)+"m")
	}

	if cfg.Caps.CPUTime > 0 {
		args = append(args, "-setprop", "limits.time.cpu="+strconv.FormatInt(int64(cfg.Caps.CPUTime.Seconds()), 10)+"s")
	}

	if cfg.Debug {
		args = append(args,
			"-setprop", cfg.PropertyPrefix+".distinctTempSpecNames=true",
			"-setprop", "log.consoleLevel=ALL",
			"-setprop", "log.consoleExclude=CONFIG",
		)
	}

	return args
}
