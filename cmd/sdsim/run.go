package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sdsim/internal/compiler"
	"sdsim/internal/frame"
	"sdsim/internal/simulate"
	"sdsim/pkg/config"
	"sdsim/pkg/logger"
	"sdsim/pkg/metrics"
	"sdsim/pkg/telemetry"
)

var (
	runSolver string
	runSteps  int
	runDt     float64
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.json>",
	Short: "Compile a scenario and run it for its configured step count",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenario,
}

func init() {
	runCmd.Flags().StringVar(&runSolver, "solver", "", "override the solver (euler, rk4)")
	runCmd.Flags().IntVar(&runSteps, "steps", 0, "override the number of steps to run")
	runCmd.Flags().Float64Var(&runDt, "dt", 0, "override the time delta")
	rootCmd.AddCommand(runCmd)
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	ctx := context.Background()
	if cfg.Tracing.Enabled {
		initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		tp, err := telemetry.Init(initCtx, telemetry.Config{
			Enabled:     cfg.Tracing.Enabled,
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.App.Name,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			logger.Warn("failed to init telemetry", "error", err)
		} else {
			defer func() {
				if err := tp.Shutdown(context.Background()); err != nil {
					logger.Warn("failed to shut down telemetry", "error", err)
				}
			}()
		}
	}

	metrics.InitMetrics(cfg.Metrics.Namespace, cfg.App.Name)

	fr, err := loadScenario(args[0])
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}

	res := compiler.Compile(ctx, fr)
	printIssues(res.Issues)
	if res.Issues.HasErrors() {
		return fmt.Errorf("scenario failed to compile")
	}

	// CLI flags win, then the frame's Simulation object; process config fills
	// in only what the frame leaves absent or zero.
	var simObj *frame.Object
	for _, o := range fr.Objects() {
		if o.Type == frame.TypeSimulation {
			simObj = o
			break
		}
	}

	solverName := runSolver
	if solverName == "" {
		solverName = cfg.Sim.DefaultSolver
	}
	dt := runDt
	if dt == 0 && simObj != nil {
		dt = simObj.AttrFloat64("time_delta", 0)
	}
	if dt == 0 {
		dt = cfg.Sim.DefaultTimeDelta
	}

	sim, err := simulate.New(res.Model, simulate.Config{Solver: solverName, TimeDelta: dt})
	if err != nil {
		return fmt.Errorf("initialize simulator: %w", err)
	}

	steps := runSteps
	if steps == 0 && simObj != nil {
		steps = int(simObj.AttrFloat64("steps", 0))
	}
	if steps == 0 {
		steps = cfg.Sim.DefaultSteps
	}
	if max := cfg.Sim.MaxSteps; max > 0 && steps > max {
		steps = max
	}

	executed, err := sim.Run(ctx, steps)
	if err != nil {
		return fmt.Errorf("run simulation: %w", err)
	}

	printHistory(res.Model.StateLayout, sim.History())
	logger.Info("run complete", "steps_executed", executed)
	return nil
}
