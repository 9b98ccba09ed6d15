package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/limaJavier/sts/internal/config"
	"github.com/limaJavier/sts/internal/logging"
	"github.com/limaJavier/sts/internal/process"
	"github.com/limaJavier/sts/internal/report"
	"github.com/limaJavier/sts/pkg/engine"
	"github.com/limaJavier/sts/pkg/model"
	"github.com/limaJavier/sts/pkg/result"
	"github.com/limaJavier/sts/pkg/runner"
)

type solveFlags struct {
	paradigm   string
	n          int
	batch      []int
	all        bool
	approaches []string
	optimize   bool
	noSymmetry bool
	outputDir  string
}

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "sts",
		Short: "Sports tournament scheduling with SAT, CP and MIP solvers",
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: sts.yaml in the current directory or next to the executable)")

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter sts.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", config.DefaultConfigFile, "Output path for the config file")

	var flags solveFlags
	solveCmd := &cobra.Command{
		Use:          "solve",
		Short:        "Solve one or many instances and record the results",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("optimize") {
				cfg.Optimize = flags.optimize
			}
			if flags.noSymmetry {
				cfg.SymmetryBreaking = false
			}
			if flags.outputDir != "" {
				cfg.OutputDir = flags.outputDir
			}
			return runSolve(cmd.Context(), cfg, flags)
		},
	}
	solveCmd.Flags().StringVarP(&flags.paradigm, "model", "m", "", "Paradigm to solve with: SAT, CP or MIP")
	solveCmd.Flags().IntVar(&flags.n, "n", 0, "Number of teams")
	solveCmd.Flags().IntSliceVar(&flags.batch, "batch", nil, "Comma-separated list of team counts")
	solveCmd.Flags().BoolVar(&flags.all, "all", false, "Solve every standard instance")
	solveCmd.Flags().StringSliceVarP(&flags.approaches, "approach", "a", nil, "Approaches to run, or \"all\" (default: the configured approaches of the paradigm)")
	solveCmd.Flags().BoolVar(&flags.optimize, "optimize", false, "Minimize the home/away imbalance")
	solveCmd.Flags().BoolVar(&flags.noSymmetry, "no-symmetry", false, "Disable symmetry breaking")
	solveCmd.Flags().StringVarP(&flags.outputDir, "out", "o", "", "Results directory (default: output_dir of the config)")
	solveCmd.MarkFlagRequired("model")
	solveCmd.MarkFlagsMutuallyExclusive("n", "batch", "all")
	solveCmd.MarkFlagsOneRequired("n", "batch", "all")

	var dimacsN int
	var dimacsOut string
	var dimacsNoSymmetry bool
	dimacsCmd := &cobra.Command{
		Use:          "dimacs",
		Short:        "Write the CNF encoding of an instance in DIMACS format",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDimacs(dimacsN, !dimacsNoSymmetry, dimacsOut)
		},
	}
	dimacsCmd.Flags().IntVar(&dimacsN, "n", 0, "Number of teams")
	dimacsCmd.Flags().StringVarP(&dimacsOut, "out", "o", "", "Output file (default: standard output)")
	dimacsCmd.Flags().BoolVar(&dimacsNoSymmetry, "no-symmetry", false, "Disable symmetry breaking")
	dimacsCmd.MarkFlagRequired("n")

	checkCmd := &cobra.Command{
		Use:          "check <result.json>...",
		Short:        "Verify every schedule stored in result files",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args)
		},
	}

	var reportOut string
	reportCmd := &cobra.Command{
		Use:          "report",
		Short:        "Export recorded results to an Excel workbook",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			return runReport(cfg, reportOut)
		},
	}
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "results.xlsx", "Output Excel file path")

	rootCmd.AddCommand(initCmd, solveCmd, dimacsCmd, checkCmd, reportCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	process.SetExecutables(cfg.Executables)
	return cfg, nil
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}
	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Printf("Created %s\n", outputPath)
	return nil
}

func runSolve(ctx context.Context, cfg *config.Config, flags solveFlags) error {
	paradigm, err := engine.ParseParadigm(flags.paradigm)
	if err != nil {
		return err
	}

	names := flags.approaches
	if len(names) == 0 {
		names = cfg.Approaches[string(paradigm)]
	}
	selected, err := engines(paradigm, names)
	if err != nil {
		return err
	}

	ns := flags.batch
	switch {
	case flags.all:
		ns = model.StandardInstances
	case flags.n != 0:
		ns = []int{flags.n}
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("solving",
		zap.String("paradigm", string(paradigm)),
		zap.Ints("n", ns),
		zap.Strings("approaches", names),
		zap.Bool("optimize", cfg.Optimize),
		zap.Bool("symmetry_breaking", cfg.SymmetryBreaking),
	)

	r := runner.New(result.NewRecorder(cfg.OutputDir, logger), logger, os.Stdout, runner.Options{
		Build: model.BuildOptions{
			SymmetryBreaking: cfg.SymmetryBreaking,
			Optimize:         cfg.Optimize,
		},
		Engine: engine.Options{
			TimeLimit: cfg.TimeLimit,
			Grace:     cfg.Grace,
			Threads:   cfg.Threads,
		},
	})

	summary := r.Run(ctx, ns, selected)
	if summary.Failures > 0 {
		return fmt.Errorf("%d of %d runs failed", summary.Failures, len(ns)*len(selected))
	}
	return ctx.Err()
}

func runDimacs(n int, symmetryBreaking bool, outputPath string) error {
	instance, err := model.NewInstance(n)
	if err != nil {
		return err
	}
	m, err := model.Build(instance, model.BuildOptions{SymmetryBreaking: symmetryBreaking})
	if err != nil {
		return err
	}

	out := os.Stdout
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer file.Close()
		out = file
	}
	return m.ToSAT().WriteDIMACS(out)
}

func runCheck(cmd *cobra.Command, paths []string) error {
	var failed []string
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading result file: %w", err)
		}
		var record result.Record
		if err := json.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("parsing %v: %w", path, err)
		}

		approaches := make([]string, 0, len(record))
		for approach := range record {
			approaches = append(approaches, approach)
		}
		slices.Sort(approaches)

		for _, approach := range approaches {
			res := record[approach]
			if len(res.Sol) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%v %v: no schedule\n", path, approach)
				continue
			}
			n := 2 * len(res.Sol)
			if err := model.Verify(model.Instance{N: n}, res.Sol); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%v %v: %v\n", path, approach, err)
				failed = append(failed, approach)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v %v: valid schedule for n=%d, balance %g\n", path, approach, n, model.BalanceOf(model.Instance{N: n}, res.Sol))
		}
	}

	if len(failed) > 0 {
		return errors.New("some schedules are invalid")
	}
	return nil
}

func runReport(cfg *config.Config, outputPath string) error {
	recorder := result.NewRecorder(cfg.OutputDir, nil)
	tables, err := report.Collect(recorder, append([]int{2}, model.StandardInstances...))
	if err != nil {
		return err
	}

	f, err := report.Generate(tables)
	if err != nil {
		return fmt.Errorf("generating workbook: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	fmt.Printf("Results written to %s\n", outputPath)
	return nil
}
