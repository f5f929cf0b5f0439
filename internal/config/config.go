package config

import (
	"log"

	"github.com/kelseyhightower/envconfig"
)

// Settings holds all daemon configuration read from TERMMUX_* environment
// variables.
type Settings struct {
	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8700"`
	LogPath    string `envconfig:"LOG_PATH" default:""`

	// BroadcastMode selects how session events reach subscribers:
	// "group" emits to named rooms, "direct" iterates clients and
	// filters by ownership (for transports without a room primitive).
	BroadcastMode string `envconfig:"BROADCAST_MODE" default:"group"`

	// EnvPolicyPath points at an optional YAML file extending the
	// environment filter applied to spawned shells.
	EnvPolicyPath string `envconfig:"ENV_POLICY_PATH" default:""`

	// RecordingEnabled turns on timestamped output capture per session.
	RecordingEnabled bool `envconfig:"RECORDING_ENABLED" default:"false"`

	// IdleCleanupSchedule is a cron expression for the ownerless-session
	// reaper. Empty disables it: sessions survive disconnects by design.
	IdleCleanupSchedule string `envconfig:"IDLE_CLEANUP_SCHEDULE" default:""`
	IdleTimeout         string `envconfig:"IDLE_TIMEOUT" default:"30m"`
}

var Cfg Settings

// Load reads configuration from the environment into Cfg.
func Load() {
	if err := envconfig.Process("TERMMUX", &Cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
}
