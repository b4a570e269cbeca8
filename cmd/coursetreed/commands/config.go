package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dgonzap30/coursetree/internal/jsonx"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect coursetreed's resolved configuration",
	}
	cmd.AddCommand(newConfigDumpCmd())
	return cmd
}

func newConfigDumpCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the fully resolved configuration (defaults + file + env)",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "yaml":
				out, err := yaml.Marshal(loadedConfig)
				if err != nil {
					return fmt.Errorf("marshal config as yaml: %w", err)
				}
				_, err = os.Stdout.Write(out)
				return err
			case "json":
				out, err := jsonx.Marshal(loadedConfig)
				if err != nil {
					return fmt.Errorf("marshal config as json: %w", err)
				}
				_, err = os.Stdout.Write(append(out, '\n'))
				return err
			default:
				return fmt.Errorf("config dump: unrecognized --format %q (want yaml or json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or json")
	return cmd
}
