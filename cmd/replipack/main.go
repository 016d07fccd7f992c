package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"replipack/adapters/excel"
	"replipack/adapters/postgres"
	"replipack/adapters/rng"
	"replipack/app"
	"replipack/domain/artefact"
	"replipack/domain/core"
	"replipack/internal/config"
	"replipack/internal/logging"
	"replipack/ports"
	"replipack/ui"
)

func main() {
	logger := logging.New()
	defer logger.Sync()

	rootCmd := &cobra.Command{
		Use:   "replipack",
		Short: "Reconstructs and verifies reproducibility artefact packs",
	}

	rootCmd.AddCommand(
		newGenerateCmd(logger),
		newVerifyCmd(logger),
		newSweepCmd(logger),
		newServeCmd(logger),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildGenerateService wires the optional ledger and exporter from the
// service configuration.
func buildGenerateService(logger *zap.Logger) (*app.GenerateService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	var runs ports.RunRepository
	if cfg.Database.Enabled {
		db, err := postgres.Connect(cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		repo := postgres.NewRunRepository(db)
		if err := repo.Migrate(context.Background()); err != nil {
			return nil, err
		}
		runs = repo
	}

	var exporter ports.TableExporter
	if cfg.Export.ExcelEnabled {
		exporter = excel.NewFitSummaryExporter()
	}

	return app.NewGenerateService(rng.NewStreamAdapter(), runs, exporter, logger), nil
}

func newGenerateCmd(logger *zap.Logger) *cobra.Command {
	var outDir string
	var seed int64
	var levelSpec string
	var targetF float64

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the artefact pack for a seed, overwriting any previous pack",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildGenerateService(logger)
			if err != nil {
				return err
			}

			runCfg := artefact.DefaultRunConfig(outDir, seed)
			if levelSpec != "" {
				levels, shift, err := parseLevels(levelSpec)
				if err != nil {
					return err
				}
				runCfg.Levels = levels
				runCfg.Shift = shift
			}
			if targetF > 0 {
				runCfg.TargetF = targetF
			}

			result, err := svc.Run(cmd.Context(), runCfg, true)
			if err != nil {
				return err
			}

			fmt.Printf("run %s: %d artefacts, F=%.4f, verdict %s\n",
				result.RunID, result.Manifest.Len(), result.Calibration.AchievedF, result.Verdict.Status)
			fmt.Printf("wrote artefacts to: %s\n", outDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "./data", "output directory for the pack")
	cmd.Flags().Int64Var(&seed, "seed", 42, "generation seed")
	cmd.Flags().StringVar(&levelSpec, "levels", "", "custom levels as id:mean:n triplets, comma-separated")
	cmd.Flags().Float64Var(&targetF, "target-f", 0, "override the ANOVA F target")
	return cmd
}

// parseLevels decodes "id:mean:n,..." triplets. The reported shift pairs the
// first and last level, consistent with their means.
func parseLevels(spec string) ([]artefact.Level, artefact.Shift, error) {
	var levels []artefact.Level
	for _, part := range strings.Split(spec, ",") {
		fields := strings.Split(strings.TrimSpace(part), ":")
		if len(fields) != 3 {
			return nil, artefact.Shift{}, fmt.Errorf("invalid level %q: want id:mean:n", part)
		}
		mean, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, artefact.Shift{}, fmt.Errorf("invalid level mean %q: %w", fields[1], err)
		}
		n, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, artefact.Shift{}, fmt.Errorf("invalid level size %q: %w", fields[2], err)
		}
		levels = append(levels, artefact.Level{ID: core.LevelID(fields[0]), TargetMean: mean, N: n})
	}
	if len(levels) < 2 {
		return nil, artefact.Shift{}, fmt.Errorf("need at least two levels")
	}

	first, last := levels[0], levels[len(levels)-1]
	shift := artefact.Shift{From: first.ID, To: last.ID, Value: last.TargetMean - first.TargetMean}
	return levels, shift, nil
}

func newVerifyCmd(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <dir>",
		Short: "Verify a pack directory and print the verdict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := app.NewVerifyService(rng.NewStreamAdapter(), logger)
			v, err := svc.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			// Exactly one verdict string on stdout, always.
			fmt.Println(string(v.Status))
			if v.Reason != "" {
				fmt.Fprintln(os.Stderr, v.Reason)
			}
			os.Exit(v.ExitCode())
			return nil
		},
	}
}

func newSweepCmd(logger *zap.Logger) *cobra.Command {
	var outRoot string
	var seedList string
	var parallel int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run isolated generate+verify runs across a set of seeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			seeds, err := parseSeeds(seedList)
			if err != nil {
				return err
			}

			gen, err := buildGenerateService(logger)
			if err != nil {
				return err
			}
			ver := app.NewVerifyService(rng.NewStreamAdapter(), logger)
			sweep := app.NewSweepService(gen, ver, logger)

			base := artefact.DefaultRunConfig(outRoot, 0)
			outcomes, err := sweep.Run(cmd.Context(), base, seeds, outRoot, parallel)
			if err != nil {
				return err
			}

			for _, o := range outcomes {
				if o.Err != "" {
					fmt.Printf("seed %d: error: %s\n", o.Seed, o.Err)
					continue
				}
				fmt.Printf("seed %d: %s\n", o.Seed, o.Verdict)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outRoot, "out", "./sweep", "root directory; one subdirectory per seed")
	cmd.Flags().StringVar(&seedList, "seeds", "42", "comma-separated seed list")
	cmd.Flags().IntVar(&parallel, "parallel", 2, "maximum runs in flight")
	return cmd
}

func newServeCmd(logger *zap.Logger) *cobra.Command {
	var dir string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a read-only inspection surface over a pack directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				addr = cfg.Server.Addr
			}
			return ui.NewServer(dir, logger).ListenAndServe(addr)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "./data", "pack directory to serve")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from SERVE_ADDR)")
	return cmd
}

func parseSeeds(list string) ([]int64, error) {
	parts := strings.Split(list, ",")
	seeds := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seed %q: %w", p, err)
		}
		seeds = append(seeds, v)
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("no seeds given")
	}
	return seeds, nil
}
