package testevents

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/droidpad/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes the complete simulator run.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime:        time.Now(),
		ClientsRequested: config.Clients,
	}

	if config.APIURL == "" {
		base, err := apiBase(config.URL)
		if err != nil {
			return err
		}
		config.APIURL = base
	}

	logger.Get().Info(ctx, "starting droidpad control simulator",
		logger.String("url", config.URL),
		logger.String("api", config.APIURL),
		logger.Int("clients", config.Clients),
		logger.Int("samples", config.Samples),
		logger.Duration("tapGap", config.TapGap),
		logger.Bool("expectLatch", config.ExpectLatch))

	api := newHTTPClient(config.APIURL, config.Timeout)

	// Step 1: Check bridge health
	logger.Get().Info(ctx, "checking bridge health")
	if err := api.health(ctx); err != nil {
		return fmt.Errorf("bridge health check failed: %w", err)
	}
	st, err := api.stats(ctx)
	if err != nil {
		return fmt.Errorf("stats retrieval failed: %w", err)
	}
	baseline := activeSessions(st)

	// Step 2: Generate the script
	script := buildScript(ctx, config)

	// Step 3: Connect clients and play concurrently
	clients := playAll(ctx, config, script, stats)
	defer func() { closeAll(clients) }()
	if stats.ClientsConnected == 0 {
		return fmt.Errorf("%w: no client connected", ErrVerification)
	}

	// Step 4: Wait for the bridge and verify what it reports
	infos, err := waitForSessions(ctx, api, config, script, stats.ClientsConnected-stats.clientsShort())
	if err != nil {
		return fmt.Errorf("session wait failed: %w", err)
	}
	if err := verifySessions(ctx, config, script, infos, stats); err != nil {
		return err
	}

	// Step 5: Disconnect and check every slot is given back
	closeAll(clients)
	clients = nil
	if err := waitForRelease(ctx, api, config, baseline); err != nil {
		return fmt.Errorf("release check failed: %w", err)
	}

	// Step 6: Save the script
	if config.OutputFile != "" {
		if err := saveScriptToFile(ctx, config.OutputFile, script); err != nil {
			logger.Get().Warn(ctx, "failed to save script to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	if stats.ClientsFailed > 0 || stats.FramesFailed > 0 {
		return fmt.Errorf("%w: %d clients failed, %d frames failed", ErrVerification, stats.ClientsFailed, stats.FramesFailed)
	}
	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

type clientResult struct {
	client *simClient
	sent   int
	err    error
}

// playAll dials every client and plays the script on each concurrently.
// Clients that connected stay open so their sessions can be inspected.
func playAll(ctx context.Context, config *Config, script Script, stats *Stats) []*simClient {
	logger.Get().Info(ctx, "connecting clients", logger.Int("clients", config.Clients))

	results := make(chan clientResult, config.Clients)
	var wg sync.WaitGroup
	for range config.Clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := dial(ctx, config)
			if err != nil {
				results <- clientResult{err: err}
				return
			}
			sent, err := c.play(ctx, script, config.Verbose)
			results <- clientResult{client: c, sent: sent, err: err}
		}()
	}
	wg.Wait()
	close(results)

	var clients []*simClient
	for r := range results {
		if r.client == nil {
			stats.ClientsFailed++
			logger.Get().Warn(ctx, "client failed to connect", logger.Error(r.err))
			continue
		}
		clients = append(clients, r.client)
		stats.ClientsConnected++
		stats.FramesSent += r.sent
		if r.err != nil {
			stats.FramesFailed += len(script.Steps) - r.sent
			stats.short++
			r.client.log.Warn(ctx, "client stopped early", logger.Int("sent", r.sent), logger.Error(r.err))
		}
	}
	return clients
}

func closeAll(clients []*simClient) {
	for _, c := range clients {
		if err := c.close(); err != nil {
			c.log.Debug(context.Background(), "close failed", logger.Error(err))
		}
	}
}

// saveScriptToFile writes the played script as indented JSON.
func saveScriptToFile(ctx context.Context, filename string, script Script) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(script, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal script: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	logger.Get().Info(ctx, "script saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	var connectRate, framesPerSecond float64

	if stats.ClientsRequested > 0 {
		connectRate = float64(stats.ClientsConnected) / float64(stats.ClientsRequested) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		framesPerSecond = float64(stats.FramesSent) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("clientsRequested", stats.ClientsRequested),
		logger.Int("clientsConnected", stats.ClientsConnected),
		logger.Int("clientsFailed", stats.ClientsFailed),
		logger.Int("framesSent", stats.FramesSent),
		logger.Int("framesFailed", stats.FramesFailed),
		logger.Int("sessionsVerified", stats.SessionsVerified),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("connectRate", connectRate),
		logger.Float64("framesPerSecond", framesPerSecond))
}
