package testevents

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/droidpad/internal/domain/types"
	"github.com/okian/droidpad/pkg/logger"
)

// played returns the sessions that have received the whole script.
func played(infos []types.SessionInfo, frames int) []types.SessionInfo {
	var out []types.SessionInfo
	for _, info := range infos {
		if info.Received == uint64(frames) {
			out = append(out, info)
		}
	}
	return out
}

// waitForSessions polls /sessions until want sessions have received
// every frame of the script.
func waitForSessions(ctx context.Context, api *HTTPClient, config *Config, script Script, want int) ([]types.SessionInfo, error) {
	logger.Get().Info(ctx, "waiting for the bridge to catch up", logger.Int("sessions", want))

	deadline := time.Now().Add(config.SettleTimeout)
	for {
		infos, err := api.sessions(ctx)
		if err != nil {
			return nil, err
		}
		done := played(infos, len(script.Steps))
		if len(done) >= want {
			return done, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %d of %d sessions received the full script", ErrVerification, len(done), want)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(PollInterval):
		}
	}
}

// verifySessions checks every played session against the script.
func verifySessions(ctx context.Context, config *Config, script Script, infos []types.SessionInfo, stats *Stats) error {
	logger.Get().Info(ctx, "verifying sessions", logger.Int("sessions", len(infos)))

	var swallowed uint64
	if config.ExpectLatch {
		swallowed = 1
	}
	for _, info := range infos {
		if info.Failed {
			return fmt.Errorf("%w: session %s failed", ErrVerification, info.ID)
		}
		for _, name := range script.Held {
			if !info.Holding(name) {
				return fmt.Errorf("%w: session %s does not hold %s", ErrVerification, info.ID, name)
			}
		}
		if len(info.Held) != len(script.Held) {
			return fmt.Errorf("%w: session %s holds %v", ErrVerification, info.ID, info.Held)
		}
		if info.Swallowed != swallowed {
			return fmt.Errorf("%w: session %s swallowed %d edges, want %d",
				ErrVerification, info.ID, info.Swallowed, swallowed)
		}
		if config.Verbose {
			logger.Get().Debug(ctx, "session verified",
				logger.String("session", info.ID),
				logger.String("label", info.Label),
				logger.Int("slot", info.Slot),
				logger.Int64("forwarded", int64(info.Forwarded)),
				logger.Int64("frames", int64(info.Frames)))
		}
		stats.SessionsVerified++
	}

	logger.Get().Info(ctx, "sessions verified", logger.Int("sessions", stats.SessionsVerified))
	return nil
}

// waitForRelease polls /stats until the active session count is back to
// baseline.
func waitForRelease(ctx context.Context, api *HTTPClient, config *Config, baseline int) error {
	deadline := time.Now().Add(config.SettleTimeout)
	for {
		st, err := api.stats(ctx)
		if err != nil {
			return err
		}
		active := activeSessions(st)
		if active <= baseline {
			logger.Get().Info(ctx, "sessions released", logger.Int("active", active))
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %d sessions still active, want %d", ErrVerification, active, baseline)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(PollInterval):
		}
	}
}
