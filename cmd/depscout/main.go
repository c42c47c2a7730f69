package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cryptellation/depscout/pkg/adapters/advisories"
	"github.com/cryptellation/depscout/pkg/adapters/npm"
	"github.com/cryptellation/depscout/pkg/adapters/registry"
	"github.com/cryptellation/depscout/pkg/config"
	"github.com/cryptellation/depscout/pkg/engine"
	"github.com/cryptellation/depscout/pkg/fetcher"
	"github.com/cryptellation/depscout/pkg/logging"
	"github.com/cryptellation/depscout/pkg/manifest"
	"github.com/cryptellation/depscout/pkg/status"
)

var (
	configPath string
	verbose    bool
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "depscout",
		Short: "Depscout advises on newer and safer versions of your declared dependencies",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logging.Init(verbose)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(checkCmd(), watchCmd())

	if err := rootCmd.Execute(); err != nil {
		logging.L().Error("Command execution failed", zap.Error(err))
		os.Exit(1)
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [project-dir]",
		Short: "Check the project's declared dependencies once",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := projectRoot(args)
			e, err := newEngine(nil)
			if err != nil {
				return err
			}

			req, err := buildRequest(root)
			if err != nil {
				return err
			}

			reports := e.Check(cmd.Context(), req)
			printReports(reports)
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [project-dir]",
		Short: "Re-check the project whenever its manifest changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			root := projectRoot(args)
			e, err := newEngine(printReports)
			if err != nil {
				return err
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}
			defer watcher.Close()

			// Watch the directory rather than the file: editors replace
			// package.json instead of writing it in place.
			if err := watcher.Add(root); err != nil {
				return fmt.Errorf("failed to watch %s: %w", root, err)
			}

			notify := func() {
				req, err := buildRequest(root)
				if err != nil {
					logging.L().Warn("Failed to read manifest", zap.Error(err))
					return
				}
				e.NotifyChanged(req)
			}
			notify()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			for {
				select {
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if filepath.Base(event.Name) == "package.json" {
						notify()
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					logging.L().Warn("Watcher error", zap.Error(err))
				case <-ctx.Done():
					return nil
				}
			}
		},
	}
}

func newEngine(onResult func(map[string]engine.Report)) (*engine.Engine, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	f := fetcher.New(
		registry.New(cfg.RegistryURL),
		npm.New(),
		advisories.New(os.Getenv("GITHUB_TOKEN")),
		fetcher.Options{
			VersionsTTL:      cfg.VersionsTTL,
			AdvisoriesTTL:    cfg.AdvisoriesTTL,
			ConcurrencyLimit: cfg.ConcurrencyLimit,
		},
	)
	return engine.New(f, cfg.StatusPolicy(), cfg.DebounceWait, cfg.DebounceDelay, onResult), nil
}

func projectRoot(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func buildRequest(root string) (engine.Request, error) {
	deps, err := manifest.Read(filepath.Join(root, "package.json"))
	if err != nil {
		return engine.Request{}, err
	}
	return engine.Request{ProjectRoot: root, Dependencies: deps}, nil
}

func printReports(reports map[string]engine.Report) {
	names := make([]string, 0, len(reports))
	for name := range reports {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		report := reports[name]
		fmt.Println(formatStatus(report.Status))
		if report.Advisory != nil {
			fmt.Println(formatStatus(*report.Advisory))
		}
	}
}

func formatStatus(st status.Status) string {
	line := fmt.Sprintf("%s: %s", st.Name, st.Kind)
	if st.Installed != nil {
		line += fmt.Sprintf(" installed=%s", st.Installed)
	}
	if st.Suggested != nil {
		line += fmt.Sprintf(" suggested=%s", st.Suggested)
	}
	if st.Latest != nil {
		line += fmt.Sprintf(" latest=%s", st.Latest)
	}
	if st.Advisory != nil {
		line += fmt.Sprintf(" advisory=%q severity=%s", st.Advisory.Title, st.Advisory.Severity)
		if st.Advisory.URL != "" {
			line += " " + st.Advisory.URL
		}
	}
	return line
}
