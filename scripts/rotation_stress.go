// rotation_stress.go - Hammer sequential proxy rotation from many goroutines
//
// Draws identities concurrently against a sequential-rotation pool and
// verifies the shared cursor serves every endpoint evenly: across the
// whole run no endpoint may drift more than one draw from any other.
//
// Usage: go run scripts/rotation_stress.go [workers] [draws-per-worker]
//
// Example:
//   go run scripts/rotation_stress.go 32 1000

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/searcrawl/anticrawl/pkg/anticrawl"
)

const poolSize = 8

func main() {
	workers := 16
	perWorker := 500

	if len(os.Args) > 1 {
		n, err := strconv.Atoi(os.Args[1])
		if err != nil || n < 1 {
			fmt.Fprintln(os.Stderr, "workers must be a positive integer")
			os.Exit(1)
		}
		workers = n
	}
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil || n < 1 {
			fmt.Fprintln(os.Stderr, "draws-per-worker must be a positive integer")
			os.Exit(1)
		}
		perWorker = n
	}

	entries := make([]string, poolSize)
	for i := range entries {
		entries[i] = fmt.Sprintf("proxy%d.example.com:%d", i+1, 8000+i)
	}

	s := anticrawl.DefaultSettings()
	s.EnableProxyRotation = true
	s.ProxyRotationMode = string(anticrawl.RotationSequential)
	s.ProxyList = strings.Join(entries, ",")
	s.EnableRequestDelay = false

	cfg, err := anticrawl.NewConfig(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	provider := anticrawl.New(cfg)

	total := workers * perWorker
	fmt.Printf("%d workers x %d draws over %d endpoints (%d total)\n\n",
		workers, perWorker, poolSize, total)

	counts := make(map[string]int, poolSize)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make(map[string]int, poolSize)
			for i := 0; i < perWorker; i++ {
				b := provider.Next()
				if b.Proxy == nil {
					local["direct"]++
					continue
				}
				local[b.Proxy.Host]++
			}
			mu.Lock()
			for host, n := range local {
				counts[host] += n
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	minDraws, maxDraws := total, 0
	sum := 0
	for _, ep := range provider.Proxies().Endpoints() {
		n := counts[ep.Host]
		sum += n
		if n < minDraws {
			minDraws = n
		}
		if n > maxDraws {
			maxDraws = n
		}
		fmt.Printf("  %-28s %8d draws\n", ep.Host, n)
	}

	fmt.Println()
	switch {
	case counts["direct"] > 0:
		fmt.Fprintf(os.Stderr, "FAIL: %d draws came out with no proxy\n", counts["direct"])
		os.Exit(1)
	case sum != total:
		fmt.Fprintf(os.Stderr, "FAIL: drew %d identities, counted %d\n", total, sum)
		os.Exit(1)
	case maxDraws-minDraws > 1:
		fmt.Fprintf(os.Stderr, "FAIL: uneven rotation, endpoint draws range from %d to %d\n",
			minDraws, maxDraws)
		os.Exit(1)
	default:
		fmt.Printf("OK: even coverage, every endpoint drawn %d-%d times\n", minDraws, maxDraws)
	}
}
