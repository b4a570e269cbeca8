// Package commands implements coursetreed's cobra command tree, grounded
// on the teacher sibling repo's simplified-root pattern.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgonzap30/coursetree/internal/config"
)

var cfgFile string
var loadedConfig *config.Config

// NewRootCmd builds the coursetreed root command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "coursetreed",
		Short: "Build and query hierarchical retrieval indices over course material",
		Long: `coursetreed clusters embedded course documents into a RAPTOR-style
hierarchy, summarizes each cluster level, and answers similarity queries by
walking the resulting tree.`,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./coursetree.yaml)")

	root.AddCommand(newBuildCmd())
	root.AddCommand(newQueryCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newConfigCmd())

	cobra.OnInitialize(initConfig)

	return root
}

func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg, _ = config.Load("")
	}
	loadedConfig = cfg
}

func newLogger(cfg *config.Config) *zap.Logger {
	var logger *zap.Logger
	var err error
	if cfg.Logging.Format == "console" {
		zcfg := zap.NewDevelopmentConfig()
		logger, err = zcfg.Build()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
