package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"taskweaver/internal/cache"
	"taskweaver/internal/configfile"
	"taskweaver/internal/control"
	"taskweaver/internal/scheduler"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	var verbose bool

	log := logrus.New()

	cmd := &cobra.Command{
		Use:     "taskweaver",
		Short:   "A declarative task runner with dependency-aware scheduling",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "taskweaver.yaml", "path to the task config file")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newRunCommand(&configPath, log))
	cmd.AddCommand(newPlanCommand(&configPath, log))
	cmd.AddCommand(newValidateCommand(&configPath, log))

	return cmd
}

func newRunCommand(configPath *string, log *logrus.Logger) *cobra.Command {
	var (
		maxJobs  int
		dryRun   bool
		monitor  bool
		noColor  bool
		cacheDir string
	)

	cmd := &cobra.Command{
		Use:   "run [task...]",
		Short: "Run one or more tasks and their dependencies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configfile.Load(*configPath)
			if err != nil {
				return err
			}

			var cacheBackend *cache.Cache
			if dir := resolveCacheDir(cacheDir); dir != "" {
				store, err := cache.NewStore(dir)
				if err != nil {
					log.WithError(err).Warn("cache store unavailable, continuing without caching")
				} else {
					cacheBackend = cache.New(store, nil)
				}
			}

			registry := control.NewRegistry()
			s := scheduler.New(cfg, log)
			result, err := s.Run(cmd.Context(), args, scheduler.SchedulerConfig{
				MaxJobs:      maxJobs,
				InheritStdio: true,
				DryRun:       dryRun,
				Monitor:      monitor,
				UseColor:     !noColor,
				Registry:     registry,
				Cache:        cacheBackend,
			})
			if err != nil {
				return err
			}

			for _, r := range result.Results {
				printResult(cmd, r)
			}
			if !result.TotalSuccess {
				return fmt.Errorf("one or more tasks failed")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxJobs, "max-jobs", 0, "maximum concurrent tasks (0 = number of logical cores)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the plan without executing")
	cmd.Flags().BoolVar(&monitor, "monitor", false, "sample resource usage even without a memory limit")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "local cache directory (default: per-user cache dir)")

	return cmd
}

func newPlanCommand(configPath *string, log *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [task...]",
		Short: "Print the execution levels for the given tasks without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configfile.Load(*configPath)
			if err != nil {
				return err
			}
			s := scheduler.New(cfg, log)
			plan, err := s.PlanDryRun(args)
			if err != nil {
				return err
			}
			for i, level := range plan.Levels {
				fmt.Fprintf(cmd.OutOrStdout(), "level %d: %v\n", i, level)
			}
			return nil
		},
	}
	return cmd
}

func newValidateCommand(configPath *string, log *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the task config without running anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configfile.Load(*configPath)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(cfg.Tasks))
			for name := range cfg.Tasks {
				names = append(names, name)
			}
			s := scheduler.New(cfg, log)
			if _, err := s.PlanDryRun(names); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config valid: %d tasks\n", len(cfg.Tasks))
			return nil
		},
	}
	return cmd
}

func printResult(cmd *cobra.Command, r scheduler.TaskResult) {
	status := "ok"
	switch {
	case r.Skipped:
		status = "skipped"
	case !r.Success:
		status = "failed"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-8s exit=%d duration=%dms\n", r.Name, status, r.ExitCode, r.DurationMS)
}

func resolveCacheDir(explicit string) string {
	if explicit != "" {
		return explicit
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.taskweaver/cache"
}
