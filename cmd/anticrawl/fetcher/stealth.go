package fetcher

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// initScript patches the browser environment before any page script runs,
// covering the headless markers the launch arguments alone cannot reach.
const initScript = `
(function() {
    'use strict';

    Object.defineProperty(navigator, 'webdriver', {
        get: () => undefined,
        configurable: true
    });
    delete Object.getPrototypeOf(navigator).webdriver;

    Object.defineProperty(navigator, 'languages', {
        get: () => Object.freeze(['en-US', 'en']),
        configurable: true
    });

    // Headless Chrome ships an empty plugin list.
    const fakePlugins = [
        { name: 'Chrome PDF Viewer', filename: 'internal-pdf-viewer', description: 'Portable Document Format' },
        { name: 'Native Client', filename: 'internal-nacl-plugin', description: '' }
    ];
    Object.defineProperty(navigator, 'plugins', {
        get: () => {
            const arr = fakePlugins.map(p => Object.assign(Object.create(Plugin.prototype), p));
            arr.item = i => arr[i] || null;
            arr.namedItem = n => arr.find(p => p.name === n) || null;
            arr.refresh = () => {};
            return arr;
        },
        configurable: true
    });

    if (!window.chrome) {
        window.chrome = {};
    }
    if (!window.chrome.runtime) {
        window.chrome.runtime = {
            get id() { return undefined; },
            connect: function() {},
            sendMessage: function() {}
        };
    }

    // Headless answers the notifications permission without a prompt state.
    const originalQuery = Permissions.prototype.query;
    Permissions.prototype.query = function(parameters) {
        if (parameters.name === 'notifications') {
            return Promise.resolve({ state: Notification.permission });
        }
        return originalQuery.call(this, parameters);
    };

    if (navigator.hardwareConcurrency === 0) {
        Object.defineProperty(navigator, 'hardwareConcurrency', {
            get: () => 4,
            configurable: true
        });
    }
})();
`

// AllocatorOptions builds the Chrome allocator options for the given config:
// a headless baseline, the provider's launch arguments re-expressed as
// chromedp flags, and the discovered Chrome binary path.
func AllocatorOptions(cfg Config) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.Flag("lang", "en-US,en"),
	)
	for _, arg := range cfg.LaunchArgs {
		opts = append(opts, flagOption(arg))
	}
	if path := FindChromePath(); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}
	return opts
}

// flagOption converts one "--name[=value]" launch argument into a chromedp
// allocator flag.
func flagOption(arg string) chromedp.ExecAllocatorOption {
	name, value, found := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
	if !found {
		return chromedp.Flag(name, true)
	}
	return chromedp.Flag(name, value)
}

// InjectInitScript returns an action that installs the evasion script on
// every new document, before page scripts execute. Queue it before Navigate.
func InjectInitScript() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(initScript).Do(ctx)
		return err
	})
}

// captureScreenshot grabs a debug screenshot of the current page, or nil if
// the browser is no longer responsive.
func captureScreenshot(ctx context.Context) []byte {
	captureCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var shot []byte
	if err := chromedp.Run(captureCtx, chromedp.CaptureScreenshot(&shot)); err != nil {
		return nil
	}
	return shot
}
