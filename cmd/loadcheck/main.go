// Command loadcheck hammers an AutoLRU from many goroutines and verifies that
// every key was loaded exactly once.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/Amund211/autolru/internal/cache"
	"golang.org/x/sync/errgroup"
)

type params struct {
	readers    int
	iterations int
	keys       int
	delay      time.Duration
}

// run returns the number of loader invocations per key
func run(ctx context.Context, p params) (map[int]int, error) {
	loader := func(ctx context.Context, key int) (string, error) {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		return fmt.Sprintf("R(%d)", key), nil
	}

	c, err := cache.New(loader, p.keys, cache.WithName("loadcheck"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	defer c.Close()

	loadsLock := sync.Mutex{}
	loads := make(map[int]int, p.keys)
	c.OnLoad(func(key int) {
		loadsLock.Lock()
		defer loadsLock.Unlock()
		loads[key]++
	})

	keys := make([]int, p.keys)
	for i := range keys {
		keys[i] = i
	}

	g, ctx := errgroup.WithContext(ctx)
	for range p.readers {
		g.Go(func() error {
			order := slices.Clone(keys)
			for range p.iterations {
				rand.Shuffle(len(order), func(i, j int) {
					order[i], order[j] = order[j], order[i]
				})
				for _, key := range order {
					value, err := c.Load(ctx, key)
					if err != nil {
						return fmt.Errorf("failed to load %d: %w", key, err)
					}
					if want := fmt.Sprintf("R(%d)", key); value != want {
						return fmt.Errorf("got %q for key %d, expected %q", value, key, want)
					}
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return loads, nil
}

func main() {
	readers := flag.Int("readers", 100, "number of concurrent readers")
	iterations := flag.Int("iterations", 1000, "iterations per reader")
	keys := flag.Int("keys", 4, "number of distinct keys, also the cache capacity")
	delay := flag.Duration("delay", time.Second, "time taken by each load")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *readers < 1 || *iterations < 1 || *keys < 1 {
		logger.Error("readers, iterations and keys must be positive")
		os.Exit(2)
	}

	start := time.Now()
	loads, err := run(context.Background(), params{
		readers:    *readers,
		iterations: *iterations,
		keys:       *keys,
		delay:      *delay,
	})
	if err != nil {
		logger.Error("Load check failed", "error", err.Error())
		os.Exit(1)
	}

	ok := true
	for key := range *keys {
		fmt.Printf("key %d: %d load(s)\n", key, loads[key])
		if loads[key] != 1 {
			ok = false
		}
	}
	logger.Info("Load check complete", "duration", time.Since(start).String(), "ok", ok)

	if !ok {
		os.Exit(1)
	}
}
