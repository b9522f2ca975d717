package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/searcrawl/anticrawl/internal/logger"
	"github.com/searcrawl/anticrawl/internal/output"
	"github.com/searcrawl/anticrawl/pkg/anticrawl"
)

var drawCmd = &cobra.Command{
	Use:   "draw",
	Short: "Draw request identities",
	Long: `Draw one or more request identities and print them.

Each identity bundles a user-agent signature, a matching header set, the
selected egress proxy, and the inter-request delay that a crawl worker
would wait. Delays are reported in the bundle but not waited out here.

Examples:
  # One identity as pretty JSON
  anticrawl draw

  # A stream of identities for piping
  anticrawl draw -n 100 --format jsonl

  # Reproducible draws for debugging rotation behavior
  anticrawl draw -n 10 --seed 42 --format text`,
	RunE: runDraw,
}

func init() {
	rootCmd.AddCommand(drawCmd)

	flags := drawCmd.Flags()
	flags.IntP("count", "n", 1, "number of identities to draw")
	flags.Uint64("seed", 0, "seed the random source for reproducible draws")
	flags.StringP("format", "f", "json", "output format: json, jsonl, yaml, text")
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.Bool("pretty", true, "pretty-print JSON output")
}

func runDraw(cmd *cobra.Command, args []string) error {
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

	var opts []anticrawl.Option
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetUint64("seed")
		opts = append(opts, anticrawl.WithRand(anticrawl.NewSeededSource(seed)))
		logger.Debug("using seeded random source", "seed", seed)
	}

	provider := anticrawl.New(cfg, opts...)
	logger.Debug("provider ready",
		"signatures", provider.Signatures().Size(),
		"proxies", provider.Proxies().Size(),
		"rotation_mode", provider.Proxies().Mode())

	formatStr, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	outFile := os.Stdout
	outPath, _ := cmd.Flags().GetString("output")
	if outPath != "" {
		f, err := os.Create(outPath) //#nosec G304 -- CLI tool writes to user-specified output file
		if err != nil {
			logger.Error("failed to create output file", "path", outPath, "error", err)
			return err
		}
		defer func() { _ = f.Close() }()
		outFile = f
	}

	pretty, _ := cmd.Flags().GetBool("pretty")
	writer, err := output.NewWriter(outFile, format,
		output.WithPretty(pretty),
		output.WithColor(outPath == ""))
	if err != nil {
		return err
	}
	defer func() { _ = writer.Close() }()

	count, _ := cmd.Flags().GetInt("count")
	for i := 0; i < count; i++ {
		if err := writer.Write(provider.Next()); err != nil {
			logger.Error("failed to write identity", "error", err)
			return err
		}
	}

	return nil
}
