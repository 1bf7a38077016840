// Package cmd holds the subcommands of the velocity binary.
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/OptimiLabs/velocity-sub007/cli"
	"github.com/OptimiLabs/velocity-sub007/config"
	"github.com/OptimiLabs/velocity-sub007/logging"
	"github.com/OptimiLabs/velocity-sub007/pkg/archive"
	"github.com/OptimiLabs/velocity-sub007/pkg/console"
	"github.com/OptimiLabs/velocity-sub007/pkg/layout"
	"github.com/OptimiLabs/velocity-sub007/pkg/notify"
	"github.com/OptimiLabs/velocity-sub007/pkg/ownership"
	"github.com/OptimiLabs/velocity-sub007/pkg/settings"
	"github.com/OptimiLabs/velocity-sub007/pkg/transport"
	"github.com/OptimiLabs/velocity-sub007/schema"
	"github.com/OptimiLabs/velocity-sub007/tui"
)

// NewConsoleCmd creates the `console` command, the main entry point.
func NewConsoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Open the session console",
		Long: `Connects to the process-hosting backend, reconciles sessions and groups
that survived a restart, and opens the interactive workspace viewer.

Sessions keep running on the backend while velocity is closed; reopening
the console reclaims them.`,
		RunE: runConsoleE,
	}

	cmd.Flags().Bool("headless", false, "Run without the TUI (reconcile and serve until interrupted)")

	return cmd
}

func runConsoleE(cmd *cobra.Command, args []string) error {
	logger := cli.GetLogger(cmd)
	opts := cli.GetOptions(cmd)
	handler := cli.NewErrorHandler(opts.Verbose)

	cfg, cfgPath, err := loadConsoleConfig(opts.ConfigFile)
	if err != nil {
		return handler.Handle(err)
	}

	store := console.NewStore()
	tree := layout.NewTree()
	owners := ownership.NewRegistry(tree)

	fileSettings := settings.NewFileSettings(cfg)
	if cfgPath != "" {
		watcher, err := settings.NewWatcher(fileSettings, cfgPath, logging.NewLogger("settings"), nil)
		if err != nil {
			logger.WithError(err).Warn("Config hot-reload unavailable")
		} else {
			defer watcher.Close()
		}
	}

	var archiveClient *archive.Client
	if cfg.Backend.ArchiveURL != "" {
		archiveClient = archive.NewClient(cfg.Backend.ArchiveURL)
	}

	headless, _ := cmd.Flags().GetBool("headless")

	var sink notify.Sink
	var noticeSink *tui.NoticeSink
	logSink := &notify.LogSink{Logger: logging.NewLogger("console")}
	if headless {
		sink = logSink
	} else {
		noticeSink = tui.NewNoticeSink(logSink)
		sink = noticeSink
	}

	core := console.NewCore(store, tree, owners, fileSettings, nil, archiveClient,
		sink, logging.NewLogger("console"), cfg.Backend.OrphanTimeoutMs)

	mgr := transport.NewManager(cfg.Backend.URL, core, sink, logging.NewLogger("transport"))
	core.SetSender(mgr)
	mgr.OnConnect(core.OnConnect)
	mgr.Start()
	defer mgr.Stop()

	if headless {
		logger.WithField("backend", cfg.Backend.URL).Info("Console running headless")
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		return nil
	}

	return tui.Run(core, mgr, noticeSink)
}

// loadConsoleConfig loads and validates velocity.yml, falling back to
// defaults when no config exists.
func loadConsoleConfig(configFile string) (*config.Config, string, error) {
	cfgPath, err := cli.InitConfig(configFile)
	if err != nil {
		return nil, "", err
	}

	if cfgPath == "" {
		cfg := &config.Config{}
		cfg.ApplyDefaults()
		return cfg, "", nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, "", err
	}

	validator, err := schema.NewValidator()
	if err != nil {
		return nil, "", err
	}
	if err := validator.Validate(cfg); err != nil {
		return nil, "", err
	}

	return cfg, cfgPath, nil
}
