package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-sod/outlier/internal/buildinfo"
	"github.com/go-sod/outlier/internal/logging"
	"github.com/go-sod/outlier/internal/shutdown"
)

func main() {
	ctx, done := shutdown.New()
	ctx = logging.WithLogger(ctx, logging.NewLoggerFromEnv())
	logger := logging.FromContext(ctx)

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		done()
		logger.Fatal(err)
	}
	done()
}

func newRootCmd() *cobra.Command {
	var configFile string
	root := &cobra.Command{
		Use:           buildinfo.Info.Name(),
		Short:         "Density based outlier scoring",
		Version:       fmt.Sprintf("%s (%s)", buildinfo.Info.Tag(), buildinfo.Info.Time()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", os.Getenv("OUTLIER_CONFIG_FILE"), "TOML config file overriding the environment")

	root.AddCommand(
		newScoreCmd(&configFile),
		newEvalCmd(&configFile),
		newServeCmd(&configFile),
		newGenerateCmd(),
	)
	return root
}
