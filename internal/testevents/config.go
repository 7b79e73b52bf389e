package testevents

import "time"

// Config holds configuration for a simulator run.
type Config struct {
	URL           string        // WebSocket endpoint of the bridge
	APIURL        string        // HTTP base for /healthz, /stats and /sessions; derived from URL when empty
	Clients       int           // Number of concurrent simulated phones
	Samples       int           // Stick samples per sweep
	TapGap        time.Duration // Gap between the edges of a tap
	ExpectLatch   bool          // Whether the bridge latches double taps
	Timeout       time.Duration // HTTP and dial timeout
	SettleTimeout time.Duration // How long to wait for the bridge to catch up
	OutputFile    string        // Optional file the played script is written to
	LogFile       string        // Optional log file
	Verbose       bool          // Enable verbose logging
}

// Frame is one client message as a phone sends it.
type Frame struct {
	Type   string   `json:"type"`
	ID     string   `json:"id"`
	Button string   `json:"button,omitempty"`
	State  string   `json:"state,omitempty"`
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
}

// Step is a frame and the pause that follows it.
type Step struct {
	Frame Frame         `json:"frame"`
	Pause time.Duration `json:"pause"`
}

// Script is what every simulated client plays, plus what the bridge
// should report once it has been played.
type Script struct {
	Steps []Step   `json:"steps"`
	Held  []string `json:"held"`
}

// Stats holds simulator statistics.
type Stats struct {
	ClientsRequested int
	ClientsConnected int
	ClientsFailed    int
	FramesSent       int
	FramesFailed     int
	SessionsVerified int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration

	short int
}

// clientsShort is the number of connected clients that did not finish
// the script.
func (s *Stats) clientsShort() int { return s.short }
