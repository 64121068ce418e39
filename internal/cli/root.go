package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/config"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/logging"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/store"
)

// flags holds persistent flag values; each one overrides its environment
// variable only when set
type flags struct {
	backendURL  string
	wsEndpoint  string
	storeDriver string
	storePath   string
	compress    bool
	logLevel    string
	logFile     string
	dev         bool
}

type app struct {
	flags flags
	cfg   *config.Config

	// replaced in tests
	copyText func(string) error
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{copyText: writeClipboard})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "gadgeto",
		Short: "Chat with an agent and keep the session across restarts",
		Long: `gadgeto talks to a conversational agent over its session API, falling
back to a live WebSocket channel when the API is down. The conversation,
the diagnostic reasoning log and the findings table are saved locally and
offered back on the next start.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.backendURL, "backend-url", "", "session API base URL (env BACKEND_URL)")
	pf.StringVar(&a.flags.wsEndpoint, "ws", "", "live channel endpoint (env WS_ENDPOINT)")
	pf.StringVar(&a.flags.storeDriver, "store", "", "store driver: bolt, sqlite or memory (env STORE_DRIVER)")
	pf.StringVar(&a.flags.storePath, "store-path", "", "store file (env STORE_PATH)")
	pf.BoolVar(&a.flags.compress, "compress", false, "compress stored sessions (env STORE_COMPRESS)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "debug, info, warn or error (env LOG_LEVEL)")
	pf.StringVar(&a.flags.logFile, "log-file", "", "write logs to this file instead of stderr")
	pf.BoolVar(&a.flags.dev, "dev", false, "development logging")

	root.AddCommand(
		newChatCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newInfoCmd(a),
		newClearCmd(a),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	f := cmd.Flags()
	if f.Changed("backend-url") {
		cfg.Backend.URL = a.flags.backendURL
	}
	if f.Changed("ws") {
		cfg.Live.Endpoint = a.flags.wsEndpoint
	}
	if f.Changed("store") {
		cfg.Store.Driver = a.flags.storeDriver
		if !f.Changed("store-path") {
			cfg.Store.Path = ""
		}
	}
	if f.Changed("store-path") {
		cfg.Store.Path = a.flags.storePath
	}
	if f.Changed("compress") {
		cfg.Store.Compress = a.flags.compress
	}
	if f.Changed("log-level") {
		cfg.Logging.Level = a.flags.logLevel
	}
	if f.Changed("dev") {
		cfg.Logging.Development = a.flags.dev
	}
	cfg.ResolveStorePath()

	a.cfg = cfg
	return nil
}

func (a *app) logger() (*logging.Logger, error) {
	cfg := logging.Config{
		Level:       a.cfg.Logging.Level,
		Development: a.cfg.Logging.Development,
	}
	if a.flags.logFile != "" {
		cfg.OutputPaths = []string{a.flags.logFile}
	}
	return logging.New(cfg)
}

func (a *app) openStore() (store.Store, error) {
	st, err := store.Open(store.Config{
		Driver:   a.cfg.Store.Driver,
		Path:     a.cfg.Store.Path,
		Compress: a.cfg.Store.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}
