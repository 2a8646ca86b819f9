package fixpoint

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/prokopk1n/nullannotate/pkg/analyzerdriver"
	"github.com/prokopk1n/nullannotate/pkg/unitplan"
)

// Config configures a single controller run across generations (§4.I, §5).
type Config struct {
	Plan     unitplan.Plan
	Analyzer analyzerdriver.Config

	// SourcesRoot holds preprocessed C sources, one directory per object
	// file.
	SourcesRoot string
	// AnnotationsDir is the canonical, controller-owned annotation tree —
	// both the analyzer's read_annotations_dir and the destination of
	// atomic renames from the staging area.
	AnnotationsDir string
	// WorkDir holds the changelog, per-unit plan files, and the analyzer's
	// staging write directory.
	WorkDir string

	// MaxGenerations bounds the number of generations attempted (G_max).
	MaxGenerations int
	// FromFile, when >= 0, rewinds the latest generation to this unit
	// index before resuming (§6 --from-file).
	FromFile int
}

// UnitOutcome records what happened to one unit within one generation, for
// callers that want more than the changelog's persisted shape (e.g. the
// observability span attributes in SPEC_FULL.md §4.K).
type UnitOutcome struct {
	Generation     int
	UnitIndex      int
	ObjectFile     string
	Skipped        bool
	AnalyzerResult analyzerdriver.Outcome
	Duration       time.Duration
	Functions      map[string]Status
}

// Summary is returned once the controller reaches fixpoint or exhausts
// MaxGenerations.
type Summary struct {
	GenerationsRun int
	Fixpoint       bool
	Statuses       map[FuncKey]Status
}

// Controller runs the incremental fixpoint loop (§4.I).
type Controller struct {
	cfg       Config
	changelog string
	onUnit    func(UnitOutcome)
}

// New builds a Controller. onUnit, if non-nil, is invoked after every unit
// (processed or skipped) for logging/metrics; it may be nil.
func New(cfg Config, onUnit func(UnitOutcome)) *Controller {
	if cfg.MaxGenerations <= 0 {
		cfg.MaxGenerations = 1
	}

	return &Controller{
		cfg:       cfg,
		changelog: filepath.Join(cfg.WorkDir, "changelog.jsonl"),
		onUnit:    onUnit,
	}
}

// Run executes generations until fixpoint or MaxGenerations is exhausted.
func (c *Controller) Run(ctx context.Context) (Summary, error) {
	state, err := resume(c.changelog, c.cfg.FromFile, len(c.cfg.Plan))
	if err != nil {
		return Summary{}, err
	}

	if err := os.MkdirAll(c.cfg.WorkDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create workdir %s: %w", c.cfg.WorkDir, err)
	}

	if err := os.MkdirAll(c.cfg.AnnotationsDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create annotations dir %s: %w", c.cfg.AnnotationsDir, err)
	}

	writer, err := openChangelogWriter(c.changelog)
	if err != nil {
		return Summary{}, err
	}
	defer writer.Close()

	statuses := state.statuses
	gen := state.startGen
	startIndex := state.startUnitIndex
	seedAnyNew := state.anyNewInStartGen

	for ; gen <= c.cfg.MaxGenerations; gen++ {
		anyNew := seedAnyNew
		seedAnyNew = false

		for idx := startIndex; idx < len(c.cfg.Plan); idx++ {
			unit := c.cfg.Plan[idx]

			outcome, err := c.runUnit(ctx, gen, idx, unit, statuses)
			if err != nil {
				return Summary{}, err
			}

			if err := writer.Append(Record{Gen: gen, FileIndex: idx, ObjectFile: unit.ObjectFile, Functions: outcome.Functions}); err != nil {
				return Summary{}, err
			}

			for _, status := range outcome.Functions {
				if status == New {
					anyNew = true
				}
			}

			if c.onUnit != nil {
				c.onUnit(outcome)
			}
		}

		startIndex = 0

		if !anyNew {
			return Summary{GenerationsRun: gen, Fixpoint: true, Statuses: statuses}, nil
		}
	}

	return Summary{GenerationsRun: c.cfg.MaxGenerations, Fixpoint: false, Statuses: statuses}, nil
}

// runUnit selects the subset of unit's functions to re-analyse, invokes the
// analyzer if non-empty, and collects the resulting per-function statuses.
func (c *Controller) runUnit(ctx context.Context, gen, idx int, unit unitplan.PlanUnit, statuses map[FuncKey]Status) (UnitOutcome, error) {
	selected := selectFunctions(unit, statuses)

	if len(selected) == 0 {
		return UnitOutcome{Generation: gen, UnitIndex: idx, ObjectFile: unit.ObjectFile, Skipped: true, Functions: map[string]Status{}}, nil
	}

	filtered := analyzerdriver.FilterFunctions(unit, selected)

	// uuid-suffixed so a rewound/resumed generation never reuses a staging
	// or run directory left behind by an earlier attempt at the same
	// (gen, idx) pair.
	runID := uuid.NewString()
	stagingDir := filepath.Join(c.cfg.WorkDir, "staging", fmt.Sprintf("gen%d-unit%d-%s", gen, idx, runID))
	unitWorkdir := filepath.Join(c.cfg.WorkDir, "run", fmt.Sprintf("gen%d-unit%d-%s", gen, idx, runID))

	if err := os.MkdirAll(unitWorkdir, 0o755); err != nil {
		return UnitOutcome{}, fmt.Errorf("create unit workdir %s: %w", unitWorkdir, err)
	}

	result, err := analyzerdriver.RunUnit(ctx, c.cfg.Analyzer, filtered, c.cfg.SourcesRoot, c.cfg.AnnotationsDir, stagingDir, unitWorkdir)
	if err != nil {
		return UnitOutcome{}, err
	}

	functions := make(map[string]Status, len(selected))

	if result.Outcome == analyzerdriver.TimedOut || result.Outcome == analyzerdriver.AnalyzerError {
		// §5: on timeout or analyzer failure every selected function
		// becomes error and no partial annotation files are consumed.
		for name := range selected {
			functions[name] = Error
			statuses[FuncKey{Name: name, ObjectFile: unit.ObjectFile}] = Error
		}
	} else {
		for name := range selected {
			status, err := c.collectOne(unit.ObjectFile, stagingDir, name)
			if err != nil {
				return UnitOutcome{}, err
			}

			functions[name] = status
			statuses[FuncKey{Name: name, ObjectFile: unit.ObjectFile}] = status
		}
	}

	return UnitOutcome{
		Generation:     gen,
		UnitIndex:      idx,
		ObjectFile:     unit.ObjectFile,
		AnalyzerResult: result.Outcome,
		Duration:       result.Duration,
		Functions:      functions,
	}, nil
}

// collectOne compares a newly-staged annotation file against the one
// currently canonical, then atomically moves it into place (§4.I step 3).
func (c *Controller) collectOne(objectFile, stagingDir, name string) (Status, error) {
	stagedPath := filepath.Join(stagingDir, objectFile, "functions", name+".txt")
	canonicalPath := filepath.Join(c.cfg.AnnotationsDir, objectFile, "functions", name+".txt")

	staged, err := os.ReadFile(stagedPath)
	if err != nil {
		return Error, nil
	}

	existing, readErr := os.ReadFile(canonicalPath)

	status := New
	if readErr == nil && bytes.Equal(staged, existing) {
		status = Stale
	}

	if err := os.MkdirAll(filepath.Dir(canonicalPath), 0o755); err != nil {
		return Error, fmt.Errorf("create annotation dir for %s: %w", canonicalPath, err)
	}

	if err := os.Rename(stagedPath, canonicalPath); err != nil {
		return Error, fmt.Errorf("move annotation file %s into place: %w", stagedPath, err)
	}

	return status, nil
}

// selectFunctions implements §4.I step 1: a function is selected iff it is
// unknown/error, or a listed callee's last generation produced a new
// annotation, or a listed callee in the same unit was already selected
// earlier in this unit's list (transitive within-unit trigger).
func selectFunctions(unit unitplan.PlanUnit, statuses map[FuncKey]Status) map[string]bool {
	selected := make(map[string]bool)

	for _, fn := range unit.Functions {
		own := statusOf(statuses, FuncKey{Name: fn.Name, ObjectFile: unit.ObjectFile})

		trigger := own == Unknown || own == Error

		if !trigger {
			for _, call := range fn.CalledFunctions {
				if statusOf(statuses, FuncKey{Name: call.Name, ObjectFile: call.ObjectFile}) == New {
					trigger = true
					break
				}

				if call.ObjectFile == unit.ObjectFile && selected[call.Name] {
					trigger = true
					break
				}
			}
		}

		if trigger {
			selected[fn.Name] = true
		}
	}

	return selected
}
