package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/angrysky56/docker-swish-mcp/internal/config"
	"github.com/angrysky56/docker-swish-mcp/internal/container"
	"github.com/angrysky56/docker-swish-mcp/internal/logging"
	"github.com/angrysky56/docker-swish-mcp/internal/proc"
	"github.com/angrysky56/docker-swish-mcp/internal/session"
)

var (
	// Global flags
	verbose       bool
	workspace     string
	containerName string
	direct        bool
	queryTimeout  time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "swish",
	Short: "Persistent SWI-Prolog sessions over a SWISH container",
	Long: `swish manages a persistent SWI-Prolog interpreter, either inside the
SWISH docker container or as a local swipl process.

Knowledge stays loaded between queries: consult a file once, then query
it for the rest of the session. Queries with variables enumerate all
solutions; ground queries report provability.

Run "swish repl" for an interactive session.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if workspace == "" {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to resolve working directory: %w", err)
			}
			workspace = wd
		}

		var err error
		cfg, err = config.Load(filepath.Join(workspace, "swish.yaml"))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg.Workspace = workspace
		if containerName != "" {
			cfg.Container.Name = containerName
		}
		if cfg.Session.Direct {
			direct = true
		}
		if queryTimeout > 0 {
			cfg.Session.QueryTimeout = queryTimeout.String()
		}

		if err := logging.Configure(logging.Options{
			Dir:   cfg.LogDir(),
			Debug: verbose || cfg.Logging.Debug,
			Level: cfg.Logging.Level,
		}); err != nil {
			return fmt.Errorf("failed to configure logging: %w", err)
		}

		zapCfg := zap.NewProductionConfig()
		zapCfg.OutputPaths = []string{"stderr"}
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&containerName, "container", "", "SWISH container name (default from config)")
	rootCmd.PersistentFlags().BoolVar(&direct, "direct", false, "Use a local swipl binary instead of the container")
	rootCmd.PersistentFlags().DurationVar(&queryTimeout, "timeout", 0, "Per-query timeout (default from config)")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(consultCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(containerCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLauncher picks the interpreter target from flags and config.
func newLauncher() proc.Launcher {
	if direct {
		return proc.NewDirectLauncher()
	}
	return proc.NewDockerLauncher(cfg.Container.Name)
}

// newSession builds a session manager from the resolved config.
func newSession() *session.Manager {
	sc := session.DefaultConfig()
	sc.QueryTimeout = cfg.GetQueryTimeout()
	sc.CanaryTimeout = cfg.GetCanaryTimeout()
	sc.ConsultTimeout = cfg.GetConsultTimeout()
	sc.StopGrace = cfg.GetStopGrace()
	sc.Proc.SettleDelay = cfg.GetSettleDelay()
	return session.NewManager(newLauncher(), sc)
}

// newContainerManager builds the container manager from config.
func newContainerManager() *container.Manager {
	return container.NewManager(container.Options{
		Name:        cfg.Container.Name,
		Image:       cfg.Container.Image,
		Port:        cfg.Container.Port,
		DataDir:     cfg.DataDir(),
		StopTimeout: cfg.GetContainerStopTimeout(),
		ReadyProbe:  cfg.GetReadyProbeTimeout(),
	})
}
