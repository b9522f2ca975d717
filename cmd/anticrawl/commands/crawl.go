package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	clifetcher "github.com/searcrawl/anticrawl/cmd/anticrawl/fetcher"
	"github.com/searcrawl/anticrawl/internal/crawler"
	"github.com/searcrawl/anticrawl/internal/logger"
	"github.com/searcrawl/anticrawl/internal/output"
	"github.com/searcrawl/anticrawl/pkg/anticrawl"
	"github.com/searcrawl/anticrawl/pkg/fetcher"
)

// wrappedResult pairs fetched page data with per-request identity metadata.
type wrappedResult struct {
	Metadata resultMetadata `json:"_metadata"`
	Page     pageData       `json:"page"`
}

type resultMetadata struct {
	URL             string `json:"url"`
	FetchedAt       string `json:"fetched_at"`
	Identity        string `json:"identity"`
	Proxy           string `json:"proxy"`
	Attempts        int    `json:"attempts"`
	Depth           int    `json:"depth"`
	FetchDurationMs int64  `json:"fetch_duration_ms"`
}

type pageData struct {
	Title      string `json:"title,omitempty"`
	StatusCode int    `json:"status_code"`
	LinkCount  int    `json:"link_count"`
	Text       string `json:"text,omitempty"`
}

var crawlCmd = &cobra.Command{
	Use:   "crawl URL...",
	Short: "Crawl URLs, presenting a fresh identity on every request",
	Long: `Crawl one or more seed URLs through the identity layer. Every fetch
draws its own bundle first: the worker waits out the drawn delay, then
sends the request with the drawn user-agent, headers, and proxy. Failed
fetches retry under a completely fresh identity.

Static mode sends plain HTTP requests; browser mode drives headless
Chrome with the fingerprint suppression flags applied.

Examples:
  # Fetch two pages
  anticrawl crawl "https://example.com/a" "https://example.com/b"

  # Crawl a listing and the pages it links to
  anticrawl crawl "https://example.com/search" --follow "a.result" --max-depth 1

  # Walk pagination in browser mode
  anticrawl crawl "https://example.com/search" --mode browser \
      --next "a.next-page" --max-pages 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	flags := crawlCmd.Flags()

	// Fetch settings
	flags.String("mode", "static", "fetch mode: static, browser")
	flags.Duration("timeout", 30*time.Second, "request timeout")
	flags.String("max-body-size", "", "response size cap for static mode (e.g. 512KB, 10MB)")
	flags.Bool("no-stealth", false, "disable the evasion init script in browser mode")
	flags.String("wait-for", "", "CSS selector to wait for in browser mode")
	flags.Duration("wait", 0, "extra settle time after load in browser mode")

	// Output settings
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.StringP("format", "f", "jsonl", "output format: json, jsonl, yaml")
	flags.Bool("include-metadata", true, "wrap each page with _metadata (use --include-metadata=false to disable)")
	flags.Bool("text", false, "include extracted page text in output")

	// Crawling settings
	flags.String("follow", "", "CSS selector for links to follow")
	flags.String("follow-pattern", "", "regex pattern for URLs to follow")
	flags.String("next", "", "CSS selector for the pagination next link")
	flags.Int("max-depth", 1, "max link depth (0=seeds only)")
	flags.Int("max-pages", 0, "max pagination pages (0=unlimited)")
	flags.Int("max-urls", 0, "max total URLs to process (0=unlimited)")
	flags.Bool("same-domain", true, "only follow links on the seed's domain (use --same-domain=false to disable)")
	flags.IntP("concurrency", "c", 3, "concurrent fetches")
	flags.Int("retries", 1, "fetch retries per URL, each under a fresh identity")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	initLogging()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Debug("crawl command starting", "seeds", len(args))

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
	provider := anticrawl.New(cfg)
	logger.Debug("identity provider ready",
		"signatures", provider.Signatures().Size(),
		"proxies", provider.Proxies().Size())

	timeout, _ := cmd.Flags().GetDuration("timeout")

	// Max body size (empty or 0 means the fetcher default)
	maxBodyStr, _ := cmd.Flags().GetString("max-body-size")
	var maxBody int
	if strings.TrimSpace(maxBodyStr) != "" && maxBodyStr != "0" {
		bytes, err := humanize.ParseBytes(maxBodyStr)
		if err != nil {
			logger.Error("invalid max-body-size", "value", maxBodyStr, "error", err)
			return err
		}
		maxBody = int(bytes)
	}

	// Create fetcher based on mode
	mode, _ := cmd.Flags().GetString("mode")
	var f fetcher.Fetcher
	switch mode {
	case "browser":
		noStealth, _ := cmd.Flags().GetBool("no-stealth")
		browserFetcher, err := clifetcher.NewBrowser(clifetcher.Config{
			Timeout:    timeout,
			Stealth:    !noStealth,
			LaunchArgs: provider.LaunchArguments(),
		})
		if err != nil {
			logger.Error("failed to create browser fetcher", "error", err)
			return err
		}
		f = browserFetcher
	case "static", "":
		f = fetcher.NewStatic(fetcher.StaticConfig{
			Timeout:     timeout,
			MaxBodySize: maxBody,
		})
	default:
		return fmt.Errorf("unknown fetch mode: %s (use 'static' or 'browser')", mode)
	}
	defer func() { _ = f.Close() }()

	// Crawler configuration from flags
	crawlCfg := crawler.DefaultConfig()
	crawlCfg.FollowSelector, _ = cmd.Flags().GetString("follow")
	crawlCfg.FollowPattern, _ = cmd.Flags().GetString("follow-pattern")
	crawlCfg.NextSelector, _ = cmd.Flags().GetString("next")
	crawlCfg.MaxDepth, _ = cmd.Flags().GetInt("max-depth")
	crawlCfg.MaxPages, _ = cmd.Flags().GetInt("max-pages")
	crawlCfg.MaxURLs, _ = cmd.Flags().GetInt("max-urls")
	crawlCfg.SameDomainOnly, _ = cmd.Flags().GetBool("same-domain")
	crawlCfg.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	crawlCfg.Retries, _ = cmd.Flags().GetInt("retries")
	crawlCfg.WaitForSelector, _ = cmd.Flags().GetString("wait-for")
	crawlCfg.WaitDuration, _ = cmd.Flags().GetDuration("wait")

	// Setup output
	outFile := os.Stdout
	if outPath, _ := cmd.Flags().GetString("output"); outPath != "" {
		out, err := os.Create(outPath) //#nosec G304 -- CLI tool writes to user-specified output file
		if err != nil {
			logger.Error("failed to create output file", "path", outPath, "error", err)
			return err
		}
		defer func() { _ = out.Close() }()
		outFile = out
	}

	formatStr, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	writer, err := output.NewWriter(outFile, format)
	if err != nil {
		logger.Error("failed to create output writer", "format", formatStr, "error", err)
		return err
	}
	defer func() { _ = writer.Close() }()

	includeMetadata, _ := cmd.Flags().GetBool("include-metadata")
	includeText, _ := cmd.Flags().GetBool("text")

	logger.Info("starting crawl",
		"seeds", len(args),
		"mode", f.Type(),
		"concurrency", crawlCfg.Concurrency)

	c := crawler.New(f, provider, crawlCfg)
	results := c.Crawl(ctx, args)

	count := 0
	errorCount := 0
	for result := range results {
		if result.Error != nil {
			errorCount++
			logger.Error("crawl error", "url", result.URL, "error", result.Error)
			continue
		}

		page := pageData{
			Title:      result.Content.Title,
			StatusCode: result.Content.StatusCode,
			LinkCount:  len(result.Content.Links),
		}
		if includeText {
			page.Text = result.Content.Text
		}

		out := any(page)
		if includeMetadata {
			out = wrappedResult{
				Metadata: resultMetadata{
					URL:             result.URL,
					FetchedAt:       time.Now().UTC().Format(time.RFC3339),
					Identity:        result.IdentityID,
					Proxy:           result.Proxy,
					Attempts:        result.Attempts,
					Depth:           result.Depth,
					FetchDurationMs: result.FetchDuration.Milliseconds(),
				},
				Page: page,
			}
		}
		if err := writer.Write(out); err != nil {
			logger.Error("failed to write output", "error", err)
			return err
		}
		count++
	}

	logger.Info("crawl complete", "fetched", count, "errors", errorCount)
	return nil
}
