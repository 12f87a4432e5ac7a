package tracker

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// BridgeTokenEnv is the environment variable consulted when the config file
// carries no bridge token. A .env file next to the binary works too.
const BridgeTokenEnv = "SUB_RETURNS_BRIDGE_TOKEN"

type BridgeConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
	// GroupWindow is the largest gap between consecutive return times that
	// still folds into one alert (default 5m).
	GroupWindow string `yaml:"group_window"`
	Timeout     string `yaml:"timeout"`
	// MaxPerMinute caps outbound pushes; excess pushes are dropped.
	MaxPerMinute int `yaml:"max_per_minute"`
}

func (b BridgeConfig) ResolveToken() string {
	if strings.TrimSpace(b.Token) != "" {
		return b.Token
	}
	return os.Getenv(BridgeTokenEnv)
}

type FileConfig struct {
	// Source selects the backend: "db" (default) or "files".
	Source string `yaml:"source"`

	// DB is the SubmarineTracker sqlite path. Empty means the plugin's
	// default location under the home directory.
	DB string `yaml:"db"`

	// SnapshotDir holds one JSON snapshot file per character ("files" source).
	SnapshotDir string `yaml:"snapshot_dir"`

	PollInterval string `yaml:"poll_interval"`

	// ArmPast decides what happens to a submarine first seen with an
	// already-elapsed return time: "fire" notifies once anyway, "skip"
	// never notifies for it. Empty keeps each backend's default
	// (db: fire, files: skip).
	ArmPast string `yaml:"arm_past"`

	// Timezone overrides display formatting only. TZ env wins over it.
	Timezone string `yaml:"timezone"`

	// Watch enables fsnotify wake-ups for the files source (default true).
	Watch *bool `yaml:"watch"`

	Debug bool `yaml:"debug"`

	Bridge BridgeConfig `yaml:"bridge"`
}

func LoadConfig(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

const subTrackerDB = "submarine-sqlite.db"

// pluginConfigDir is where XIVLauncher keeps the SubmarineTracker plugin
// data, relative to the home directory.
func pluginConfigDir(home string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(home, "AppData", "Roaming", "XIVLauncher", "pluginConfigs", "SubmarineTracker")
	}
	return filepath.Join(home, ".xlcore", "pluginConfigs", "SubmarineTracker")
}

func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(pluginConfigDir(home), subTrackerDB), nil
}

func DefaultSnapshotDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return pluginConfigDir(home), nil
}

func (c *FileConfig) ResolvePollInterval() (time.Duration, error) {
	return parseDurationOrDefault("poll_interval", c.PollInterval, time.Second)
}

func (c *FileConfig) ResolveGroupWindow() (time.Duration, error) {
	return parseDurationOrDefault("bridge.group_window", c.Bridge.GroupWindow, DefaultGroupWindow)
}

func (c *FileConfig) ResolveBridgeTimeout() (time.Duration, error) {
	return parseDurationOrDefault("bridge.timeout", c.Bridge.Timeout, defaultBridgeTimeout)
}

func (c *FileConfig) WatchEnabled() bool {
	return c.Watch == nil || *c.Watch
}

func parseDurationOrDefault(name, raw string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", name, raw, err)
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}

// ParseArmPolicy maps the arm_past config value onto a policy, falling back
// to the backend default for an empty value.
func ParseArmPolicy(s string, def ArmPolicy) (ArmPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return def, nil
	case "fire":
		return ArmAlways, nil
	case "skip":
		return ArmFutureOnly, nil
	default:
		return def, fmt.Errorf("arm_past: unknown policy %q (want fire or skip)", s)
	}
}
