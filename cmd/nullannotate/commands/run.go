package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/prokopk1n/nullannotate/internal/config"
	"github.com/prokopk1n/nullannotate/internal/observability"
	"github.com/prokopk1n/nullannotate/pkg/analyzerdriver"
	"github.com/prokopk1n/nullannotate/pkg/archive"
	"github.com/prokopk1n/nullannotate/pkg/budget"
	"github.com/prokopk1n/nullannotate/pkg/fixpoint"
	"github.com/prokopk1n/nullannotate/pkg/unitplan"
)

// RunCommand holds the flags for the run command.
type RunCommand struct {
	debug         bool
	heap          string
	cpuTime       string
	wallClock     string
	fromFile      int
	generations   int
	metricsAddr   string
	archiveOnExit bool
}

// NewRunCommand creates and configures the run command.
func NewRunCommand() *cobra.Command {
	rc := &RunCommand{fromFile: -1, generations: 0}

	cobraCmd := &cobra.Command{
		Use:   "run <plan> <sources_root> <work_dir>",
		Short: "Drive the analyzer to a fixpoint across generations",
		Args:  cobra.ExactArgs(3),
		RunE:  rc.Run,
	}

	cobraCmd.Flags().BoolVar(&rc.debug, "debug", false, "verbose analyzer console logging and distinct temp spec names")
	cobraCmd.Flags().StringVar(&rc.heap, "heap", "", "per-unit analyzer heap size override (e.g. 512MB)")
	cobraCmd.Flags().StringVar(&rc.cpuTime, "time", "", "per-unit analyzer CPU time cap override (e.g. 5m)")
	cobraCmd.Flags().StringVar(&rc.wallClock, "timeout", "", "per-unit wall-clock timeout override (e.g. 10m)")
	cobraCmd.Flags().IntVar(&rc.fromFile, "from-file", -1, "rewind the latest generation to this unit index before resuming")
	cobraCmd.Flags().IntVar(&rc.generations, "generations", 0, "maximum generations to attempt (0: read from config, default 10)")
	cobraCmd.Flags().StringVar(&rc.metricsAddr, "metrics-addr", "", "serve Prometheus /metrics on this address (e.g. :9090); empty disables")
	cobraCmd.Flags().BoolVar(&rc.archiveOnExit, "archive-on-exit", false, "write an lz4 tar snapshot of annotations+changelog to work_dir/snapshot.tar.lz4 on exit")

	return cobraCmd
}

// Run executes the run command.
func (rc *RunCommand) Run(cobraCmd *cobra.Command, args []string) error {
	planPath, sourcesRoot, workDir := args[0], args[1], args[2]

	cfg, err := loadConfig(cobraCmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(logLevel(cobraCmd), false)

	plan, err := unitplan.Load(planPath)
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}

	analyzerCfg, err := rc.buildAnalyzerConfig(cfg)
	if err != nil {
		return err
	}

	maxGenerations := rc.generations
	if maxGenerations == 0 {
		maxGenerations = cfg.Run.MaxGenerations
	}

	fromFile := rc.fromFile
	if !cobraCmd.Flags().Changed("from-file") {
		fromFile = cfg.Run.FromFile
	}

	metricsAddr := rc.metricsAddr
	if metricsAddr == "" {
		metricsAddr = cfg.Run.MetricsAddr
	}

	archiveOnExit := rc.archiveOnExit || cfg.Run.ArchiveOnExit

	var unitMetrics *observability.UnitMetrics

	if metricsAddr != "" {
		handler, provider, err := observability.PrometheusHandler()
		if err != nil {
			return fmt.Errorf("create metrics handler: %w", err)
		}

		unitMetrics, err = observability.NewUnitMetrics(provider.Meter("nullannotate"))
		if err != nil {
			return fmt.Errorf("create unit metrics: %w", err)
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", handler)

		server := &http.Server{Addr: metricsAddr, Handler: mux}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server exited", "error", err)
			}
		}()

		logger.Info("serving metrics", "addr", metricsAddr)
	}

	annotationsDir := filepath.Join(workDir, "annotations")

	fixpointCfg := fixpoint.Config{
		Plan:           plan,
		Analyzer:       analyzerCfg,
		SourcesRoot:    sourcesRoot,
		AnnotationsDir: annotationsDir,
		WorkDir:        workDir,
		MaxGenerations: maxGenerations,
		FromFile:       fromFile,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	controller := fixpoint.New(fixpointCfg, func(outcome fixpoint.UnitOutcome) {
		onUnit(ctx, logger, unitMetrics, outcome)
	})

	summary, err := controller.Run(ctx)
	if archiveOnExit {
		if archiveErr := writeArchiveSnapshot(workDir, annotationsDir, logger); archiveErr != nil {
			logger.Error("archive snapshot failed", "error", archiveErr)
		}
	}

	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	logger.Info("run complete",
		"generations_run", summary.GenerationsRun,
		"fixpoint", summary.Fixpoint,
		"functions", len(summary.Statuses))

	return nil
}

func onUnit(ctx context.Context, logger *slog.Logger, unitMetrics *observability.UnitMetrics, outcome fixpoint.UnitOutcome) {
	logger.Info("unit complete",
		"generation", outcome.Generation,
		"object_file", outcome.ObjectFile,
		"skipped", outcome.Skipped,
		"outcome", outcome.AnalyzerResult.String(),
		"functions", len(outcome.Functions))

	if unitMetrics != nil && !outcome.Skipped {
		unitMetrics.RecordUnit(ctx, outcome.AnalyzerResult.String(), outcome.Duration, len(outcome.Functions))
	}
}

func (rc *RunCommand) buildAnalyzerConfig(cfg *config.Config) (analyzerdriver.Config, error) {
	analyzerCfg := analyzerdriver.DefaultConfig(cfg.Analyzer.Root)

	if cfg.Analyzer.ConfigProfile != "" {
		analyzerCfg.ConfigProfile = cfg.Analyzer.ConfigProfile
	}

	if cfg.Analyzer.SpecFile != "" {
		analyzerCfg.SpecFile = cfg.Analyzer.SpecFile
	}

	if cfg.Analyzer.PropertyPrefix != "" {
		analyzerCfg.PropertyPrefix = cfg.Analyzer.PropertyPrefix
	}

	analyzerCfg.Debug = rc.debug || cfg.Analyzer.Debug

	heapStr := rc.heap
	if heapStr == "" {
		heapStr = cfg.Analyzer.HeapSize
	}

	heapBytes, err := budget.ParseHeap(heapStr)
	if err != nil {
		return analyzerdriver.Config{}, fmt.Errorf("parse heap: %w", err)
	}

	cpuStr := rc.cpuTime
	if cpuStr == "" {
		cpuStr = cfg.Analyzer.CPUTime
	}

	cpuTime, err := budget.ParseDuration(cpuStr)
	if err != nil {
		return analyzerdriver.Config{}, fmt.Errorf("parse time: %w", err)
	}

	wallStr := rc.wallClock
	if wallStr == "" {
		wallStr = cfg.Analyzer.WallClockPerRun
	}

	wallClock, err := budget.ParseDuration(wallStr)
	if err != nil {
		return analyzerdriver.Config{}, fmt.Errorf("parse timeout: %w", err)
	}

	analyzerCfg.Caps = analyzerCfg.Caps.WithOverrides(heapBytes, cpuTime, wallClock)

	return analyzerCfg, nil
}

func writeArchiveSnapshot(workDir, annotationsDir string, logger *slog.Logger) error {
	changelogPath := filepath.Join(workDir, "changelog.jsonl")
	snapshotPath := filepath.Join(workDir, "snapshot.tar.lz4")

	if err := archive.WriteSnapshot(snapshotPath, annotationsDir, changelogPath); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	logger.Info("snapshot archived", "path", snapshotPath)

	return nil
}
