package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/searcrawl/anticrawl/internal/logger"
	"github.com/searcrawl/anticrawl/internal/output"
	"github.com/searcrawl/anticrawl/internal/probe"
	"github.com/searcrawl/anticrawl/pkg/anticrawl"
)

var (
	boldColor = color.New(color.Bold)
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgHiYellow)
	downColor = color.New(color.FgRed)
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and report the effective identity pools",
	Long: `Validate the layered configuration (defaults, config file, environment)
and report what the identity provider would actually use: pool sizes,
rotation mode, delay bounds, and the fingerprint suppression flag count.

With --probe, every configured proxy endpoint is tested for reachability
and reported individually. An endpoint counts as up when it relays the
request at all, whatever the HTTP status.

Examples:
  anticrawl check
  anticrawl check --probe --timeout 5s
  anticrawl check --format json`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	flags := checkCmd.Flags()
	flags.Bool("probe", false, "test each proxy endpoint for reachability")
	flags.Duration("timeout", 10*time.Second, "per-endpoint probe timeout")
	flags.String("target", probe.DefaultTarget, "URL fetched through each endpoint when probing")
	flags.String("format", "text", "output format: text, json")
}

func runCheck(cmd *cobra.Command, args []string) error {
	initLogging()

	settings, err := loadSettings()
	if err != nil {
		logger.Error("failed to load settings", "error", err)
		return err
	}

	cfg, err := anticrawl.NewConfig(settings)
	if err != nil {
		fmt.Printf("%s %s\n", boldColor.Sprint("anticrawl configuration:"), downColor.Sprint("invalid"))
		return err
	}
	provider := anticrawl.New(cfg)

	formatStr, _ := cmd.Flags().GetString("format")
	switch formatStr {
	case "json":
		writer, err := output.NewWriter(os.Stdout, output.FormatJSON, output.WithPretty(true))
		if err != nil {
			return err
		}
		if err := writer.Write(provider.Snapshot()); err != nil {
			return err
		}
		if err := writer.Close(); err != nil {
			return err
		}
	case "text", "":
		printReport(settings, cfg, provider)
	default:
		return fmt.Errorf("unsupported output format: %s (use 'text' or 'json')", formatStr)
	}

	if doProbe, _ := cmd.Flags().GetBool("probe"); doProbe {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		target, _ := cmd.Flags().GetString("target")
		return runProbe(cfg.ProxyEndpoints(), target, timeout)
	}

	return nil
}

func printReport(s anticrawl.Settings, cfg *anticrawl.Config, provider *anticrawl.Provider) {
	fmt.Printf("%s %s\n\n", boldColor.Sprint("anticrawl configuration:"), okColor.Sprint("valid"))

	if used := viper.ConfigFileUsed(); used != "" {
		printRow("config file", used)
	}
	printRow("identity layer", onOff(s.Enabled))
	printRow("signature pool", describeSignatures(s, provider))
	printRow("signature rotation", onOff(s.EnableUserAgentRotation))
	printRow("proxy rotation", describeProxies(s, provider))
	if provider.Proxies().Size() > 0 {
		printRow("rotation mode", string(cfg.RotationMode()))
	}
	printRow("request delay", describeDelay(s, cfg.Delay()))
	printRow("random headers", onOff(s.EnableRandomHeaders))
	printRow("browser headers", onOff(s.EnableBrowserHeaders))
	printRow("launch arguments", fmt.Sprintf("%d flags", len(provider.LaunchArguments())))
}

func printRow(name, value string) {
	fmt.Printf("  %-20s %s\n", name, value)
}

func onOff(enabled bool) string {
	if enabled {
		return okColor.Sprint("on")
	}
	return warnColor.Sprint("off")
}

func describeSignatures(s anticrawl.Settings, provider *anticrawl.Provider) string {
	kind := "desktop"
	if s.UseMobileAgents {
		kind = "desktop + mobile"
	}
	if n := len(s.CustomAgents()); n > 0 {
		kind = fmt.Sprintf("%s + %d custom", kind, n)
	}
	return fmt.Sprintf("%d signatures (%s)", provider.Signatures().Size(), kind)
}

func describeProxies(s anticrawl.Settings, provider *anticrawl.Provider) string {
	n := provider.Proxies().Size()
	switch {
	case !s.EnableProxyRotation && n > 0:
		return fmt.Sprintf("%s (%d endpoints configured)", onOff(false), n)
	case !s.EnableProxyRotation:
		return onOff(false)
	case n == 0:
		return fmt.Sprintf("%s, but PROXY_LIST is empty: requests go direct", warnColor.Sprint("on"))
	default:
		return fmt.Sprintf("%s (%d endpoints)", onOff(true), n)
	}
}

func describeDelay(s anticrawl.Settings, d anticrawl.DelayRange) string {
	if !s.EnableRequestDelay {
		return onOff(false)
	}
	return fmt.Sprintf("%s to %s", d.Min, d.Max)
}

func runProbe(endpoints []anticrawl.ProxyEndpoint, target string, timeout time.Duration) error {
	if len(endpoints) == 0 {
		fmt.Printf("\n%s\n", warnColor.Sprint("no proxy endpoints configured, nothing to probe"))
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("\nprobing %d endpoints via %s\n", len(endpoints), target)

	p := probe.New(probe.WithTarget(target), probe.WithTimeout(timeout))
	results := p.CheckAll(ctx, endpoints)

	reachable := 0
	for _, r := range results {
		if r.IsSuccess() {
			reachable++
			fmt.Printf("  %s  %-40s %4dms  HTTP %d\n",
				okColor.Sprint("up  "), r.Endpoint, r.DurationMs, r.StatusCode)
		} else {
			fmt.Printf("  %s  %-40s %s\n",
				downColor.Sprint("down"), r.Endpoint, r.Error)
		}
	}

	fmt.Printf("\n%d/%d endpoints reachable\n", reachable, len(results))
	if reachable == 0 {
		return fmt.Errorf("no proxy endpoint is reachable")
	}
	return nil
}
