package fetcher

import (
	"os"
	"os/exec"
	"strings"

	"github.com/searcrawl/anticrawl/internal/logger"
)

// chromeBinaryNames lists Chrome/Chromium binaries to try: PATH names first,
// then common installation locations.
var chromeBinaryNames = []string{
	"google-chrome-stable",
	"google-chrome",
	"chromium",
	"chromium-browser",
	"chrome",
	// macOS paths
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
	// Common Linux paths
	"/usr/bin/google-chrome-stable",
	"/usr/bin/google-chrome",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/snap/bin/chromium",
	// Windows paths
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

// FindChromePath locates a Chrome/Chromium binary. The CHROME_BIN
// environment variable takes precedence; after that, PATH lookup for short
// names and a file check for absolute paths. Returns "" when nothing is
// found, leaving chromedp to its own default lookup.
func FindChromePath() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		if info, err := os.Stat(bin); err == nil && !info.IsDir() {
			logger.Debug("using Chrome binary from CHROME_BIN", "path", bin)
			return bin
		}
		logger.Warn("CHROME_BIN is set but not a usable binary", "path", bin)
	}

	for _, name := range chromeBinaryNames {
		if strings.ContainsAny(name, `/\`) {
			if info, err := os.Stat(name); err == nil && !info.IsDir() {
				logger.Debug("found Chrome binary", "path", name)
				return name
			}
			continue
		}
		if path, err := exec.LookPath(name); err == nil {
			logger.Debug("found Chrome binary", "name", name, "path", path)
			return path
		}
	}

	logger.Warn("no Chrome binary found, browser fetch mode may not work")
	return ""
}
