package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/adapters/httpapi"
	"github.com/mikey/mail-triage/internal/config"
	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/di"
	"github.com/mikey/mail-triage/internal/ports"
	"github.com/mikey/mail-triage/internal/scheduler"
)

// runtime is what every command receives from the container
type runtime struct {
	service   *core.TriageService
	logger    *zap.Logger
	cfg       *config.Config
	store     core.OverrideStore
	extractor core.EntityExtractor
}

// newCLIApp creates the CLI application with all commands
func newCLIApp() *cli.App {
	app := &cli.App{
		Name:    "mail-triage",
		Usage:   "Categorize and prioritize email batches",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to config file"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Enable debug logging"},
		},
		Commands: []*cli.Command{
			triageCmd(),
			overrideCmd(),
			disconnectCmd(),
			serveCmd(),
			watchCmd(),
		},
	}
	// Errors are returned to main instead of exiting inside the library
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// withRuntime builds the container, restores the persisted overrides and
// runs fn, closing the store and extractor afterwards
func withRuntime(c *cli.Context, fn func(rt *runtime) error) error {
	container, err := di.BuildContainer(di.Options{
		ConfigFile: c.String("config"),
		Verbose:    c.Bool("verbose"),
	})
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}

	return container.Invoke(func(
		service *core.TriageService,
		logger *zap.Logger,
		cfg *config.Config,
		store core.OverrideStore,
		extractor core.EntityExtractor,
	) error {
		defer logger.Sync()
		rt := &runtime{service: service, logger: logger, cfg: cfg, store: store, extractor: extractor}
		defer rt.close()

		if err := service.Restore(c.Context); err != nil {
			logger.Warn("Could not restore overrides, starting empty", zap.Error(err))
		}
		return fn(rt)
	})
}

func (rt *runtime) close() {
	if closer, ok := rt.extractor.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			rt.logger.Error("Failed to close entity extractor", zap.Error(err))
		}
	}
	if closer, ok := rt.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			rt.logger.Error("Failed to close override store", zap.Error(err))
		}
	}
}

func triageCmd() *cli.Command {
	return &cli.Command{
		Name:  "triage",
		Usage: "Score a JSON batch of messages",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Value: "-", Usage: "Batch file, - for stdin"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Result file (stdout if not set)"},
		},
		Action: func(c *cli.Context) error {
			data, err := readInput(c.String("input"))
			if err != nil {
				return err
			}

			return withRuntime(c, func(rt *runtime) error {
				results, _, err := rt.service.TriageBatch(c.Context, data)
				if err != nil {
					return err
				}
				if path := c.String("output"); path != "" {
					f, err := os.Create(path)
					if err != nil {
						return fmt.Errorf("failed to create output file: %w", err)
					}
					defer f.Close()
					return outputJSON(f, results)
				}
				return outputJSON(c.App.Writer, results)
			})
		},
	}
}

func overrideCmd() *cli.Command {
	return &cli.Command{
		Name:  "override",
		Usage: "Manage priority overrides",
		Subcommands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Set the priority of a message",
				ArgsUsage: "<id> <High|Medium|Low>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return fmt.Errorf("expected a message id and a priority")
					}
					return withRuntime(c, func(rt *runtime) error {
						return rt.service.SetPriority(c.Context, c.Args().Get(0), c.Args().Get(1))
					})
				},
			},
			{
				Name:      "get",
				Usage:     "Show the override of a message",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("expected a message id")
					}
					return withRuntime(c, func(rt *runtime) error {
						p, err := rt.service.GetPriority(c.Args().First())
						if err != nil {
							return err
						}
						_, err = fmt.Fprintln(c.App.Writer, p)
						return err
					})
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove the override of a message",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("expected a message id")
					}
					return withRuntime(c, func(rt *runtime) error {
						return rt.service.ClearPriority(c.Context, c.Args().First())
					})
				},
			},
			{
				Name:  "list",
				Usage: "List every override in effect",
				Action: func(c *cli.Context) error {
					return withRuntime(c, func(rt *runtime) error {
						return outputJSON(c.App.Writer, rt.service.Overrides())
					})
				},
			},
		},
	}
}

func disconnectCmd() *cli.Command {
	return &cli.Command{
		Name:  "disconnect",
		Usage: "End the session and drop every override",
		Action: func(c *cli.Context) error {
			return withRuntime(c, func(rt *runtime) error {
				return rt.service.Disconnect(c.Context)
			})
		},
	}
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the triage API over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Usage: "Listen address (overrides server.listen_address)"},
		},
		Action: func(c *cli.Context) error {
			return withRuntime(c, func(rt *runtime) error {
				addr := rt.cfg.GetServer().ListenAddress
				if c.IsSet("listen") {
					addr = c.String("listen")
				}
				return runUntilSignal(rt.logger, httpapi.NewServer(rt.service, rt.logger, addr))
			})
		},
	}
}

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Periodically re-triage an exported batch file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "Batch file"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Result file (defaults to <input>.triaged.json)"},
			&cli.StringFlag{Name: "schedule", Usage: "Cron schedule (overrides watch.schedule)"},
		},
		Action: func(c *cli.Context) error {
			return withRuntime(c, func(rt *runtime) error {
				wc := rt.cfg.GetWatch()
				if c.IsSet("schedule") {
					wc.Schedule = c.String("schedule")
				}
				output := c.String("output")
				if output == "" {
					output = c.String("input") + ".triaged.json"
				}

				s, err := scheduler.NewScheduler(wc.Timezone, rt.logger)
				if err != nil {
					return err
				}
				w := scheduler.NewWatcher(rt.service, c.String("input"), output, rt.logger)
				if err := w.Run(c.Context); err != nil {
					return err
				}
				if err := s.Schedule(wc.Schedule, w.Job(c.Context)); err != nil {
					return err
				}
				return runUntilSignal(rt.logger, s)
			})
		},
	}
}

// runUntilSignal starts a frontend and stops it on SIGINT or SIGTERM
func runUntilSignal(logger *zap.Logger, frontend ports.Frontend) error {
	if err := frontend.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	<-sigCh
	logger.Info("Shutting down...")

	if err := frontend.Stop(); err != nil {
		logger.Error("Failed to stop cleanly", zap.Error(err))
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return data, nil
}

// outputJSON writes v as indented JSON
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
