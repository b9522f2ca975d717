package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/searcrawl/anticrawl/internal/logger"
	"github.com/searcrawl/anticrawl/internal/output"
	"github.com/searcrawl/anticrawl/pkg/anticrawl"
)

var launchArgsCmd = &cobra.Command{
	Use:   "launch-args",
	Short: "Print the browser launch flags for fingerprint suppression",
	Long: `Print the Chrome launch flags that suppress automation fingerprints,
one per line. The list is empty when the identity layer is disabled.

Pipe the output straight into a browser invocation:
  chromium $(anticrawl launch-args) https://example.com`,
	RunE: runLaunchArgs,
}

func init() {
	rootCmd.AddCommand(launchArgsCmd)

	launchArgsCmd.Flags().StringP("format", "f", "text", "output format: text, json")
}

func runLaunchArgs(cmd *cobra.Command, args []string) error {
	initLogging()

	settings, err := loadSettings()
	if err != nil {
		logger.Error("failed to load settings", "error", err)
		return err
	}

	cfg, err := anticrawl.NewConfig(settings)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}

	launchArgs := anticrawl.New(cfg).LaunchArguments()

	formatStr, _ := cmd.Flags().GetString("format")
	switch formatStr {
	case "json":
		writer, err := output.NewWriter(os.Stdout, output.FormatJSON, output.WithPretty(true))
		if err != nil {
			return err
		}
		if err := writer.Write(launchArgs); err != nil {
			return err
		}
		return writer.Close()
	case "text", "":
		for _, a := range launchArgs {
			fmt.Println(a)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s (use 'text' or 'json')", formatStr)
	}
}
