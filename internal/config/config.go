package config

import (
	"embed"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SourceDefault selects the canonical upstream hosts with no mirror.
const SourceDefault = "default"

// Config describes acquisition behaviour and the local directory root.
type Config struct {
	HomeDir            string                  `yaml:"home_dir"`
	DownloadSource     string                  `yaml:"download_source"`
	Mirrors            map[string]MirrorConfig `yaml:"mirrors"`
	CheckLibraryHashes *bool                   `yaml:"check_library_hashes"`
	VerifyManifest     *bool                   `yaml:"verify_manifest"`
	VersionListURL     string                  `yaml:"version_list_url"`
	HTTP               HTTPConfig              `yaml:"http"`
	Progress           ProgressConfig          `yaml:"progress"`
	Runtimes           map[int]string          `yaml:"runtimes"`
	Journal            JournalConfig           `yaml:"journal"`
	Log                LogConfig               `yaml:"log"`
}

// MirrorConfig holds the three base URLs a mirror provider serves.
type MirrorConfig struct {
	Libraries string `yaml:"libraries"`
	Metadata  string `yaml:"metadata"`
	Assets    string `yaml:"assets"`
}

// HTTPConfig tunes the fetch client.
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// ProgressConfig tunes the progress aggregator.
type ProgressConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// JournalConfig locates the acquisition journal database.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// LogConfig selects logger verbosity and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

//go:embed base-config.yaml
var embeddedBaseConfig embed.FS

// BaseConfig returns the embedded base configuration.
func BaseConfig() (*Config, error) {
	data, err := embeddedBaseConfig.ReadFile("base-config.yaml")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read embedded base config")
	}
	return decodeConfig(data)
}

// LoadConfig loads a configuration file from disk.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file: %s", path)
	}
	return decodeConfig(data)
}

// ParseConfig decodes configuration data from bytes.
func ParseConfig(data []byte) (*Config, error) {
	if len(data) == 0 {
		return &Config{}, nil
	}
	return decodeConfig(data)
}

// Load returns the base configuration overlaid with the file at path, if any.
func Load(path string) (*Config, error) {
	base, err := BaseConfig()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		return MergeConfigs(base)
	}
	user, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return MergeConfigs(base, user)
}

// MergeConfigs merges multiple configurations together, later entries overriding earlier ones.
func MergeConfigs(cfgs ...*Config) (*Config, error) {
	if len(cfgs) == 0 {
		return nil, errors.New("no configurations provided")
	}

	result := Config{Mirrors: map[string]MirrorConfig{}, Runtimes: map[int]string{}}

	for _, cfg := range cfgs {
		if cfg == nil {
			continue
		}

		if trimmed := strings.TrimSpace(cfg.HomeDir); trimmed != "" {
			result.HomeDir = trimmed
		}
		if trimmed := strings.TrimSpace(cfg.DownloadSource); trimmed != "" {
			result.DownloadSource = trimmed
		}
		if trimmed := strings.TrimSpace(cfg.VersionListURL); trimmed != "" {
			result.VersionListURL = trimmed
		}
		if cfg.CheckLibraryHashes != nil {
			v := *cfg.CheckLibraryHashes
			result.CheckLibraryHashes = &v
		}
		if cfg.VerifyManifest != nil {
			v := *cfg.VerifyManifest
			result.VerifyManifest = &v
		}
		if cfg.HTTP.Timeout > 0 {
			result.HTTP.Timeout = cfg.HTTP.Timeout
		}
		if trimmed := strings.TrimSpace(cfg.HTTP.UserAgent); trimmed != "" {
			result.HTTP.UserAgent = trimmed
		}
		if cfg.Progress.PollInterval != 0 {
			result.Progress.PollInterval = cfg.Progress.PollInterval
		}
		if trimmed := strings.TrimSpace(cfg.Journal.Path); trimmed != "" {
			result.Journal.Path = trimmed
		}
		if trimmed := strings.TrimSpace(cfg.Log.Level); trimmed != "" {
			result.Log.Level = trimmed
		}
		if trimmed := strings.TrimSpace(cfg.Log.Format); trimmed != "" {
			result.Log.Format = trimmed
		}
		for name, mirror := range cfg.Mirrors {
			result.Mirrors[name] = mirror
		}
		for major, dir := range cfg.Runtimes {
			result.Runtimes[major] = dir
		}
	}

	if result.DownloadSource == "" {
		result.DownloadSource = SourceDefault
	}
	if result.HTTP.Timeout == 0 {
		result.HTTP.Timeout = 300 * time.Second
	}
	if result.Progress.PollInterval == 0 {
		result.Progress.PollInterval = 33 * time.Millisecond
	}

	return &result, nil
}

// Validate rejects configurations the acquisition engine cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HomeDir) == "" {
		return errors.New("home_dir must be set")
	}
	if c.DownloadSource != SourceDefault {
		mirror, ok := c.Mirrors[c.DownloadSource]
		if !ok {
			return errors.Errorf("unknown download_source %q (known: %s)", c.DownloadSource, strings.Join(c.SourceNames(), ", "))
		}
		if mirror.Libraries == "" || mirror.Metadata == "" || mirror.Assets == "" {
			return errors.Errorf("mirror %q must define libraries, metadata and assets base URLs", c.DownloadSource)
		}
	}
	if c.Progress.PollInterval <= 0 {
		return errors.Errorf("progress.poll_interval must be positive, got %s", c.Progress.PollInterval)
	}
	for major, dir := range c.Runtimes {
		if major <= 0 || strings.TrimSpace(dir) == "" {
			return errors.Errorf("invalid runtime entry %d: %q", major, dir)
		}
	}
	return nil
}

// SourceNames lists the selectable download sources, default first.
func (c *Config) SourceNames() []string {
	names := make([]string, 0, len(c.Mirrors))
	for name := range c.Mirrors {
		names = append(names, name)
	}
	sort.Strings(names)
	return append([]string{SourceDefault}, names...)
}

// ActiveMirror returns the selected mirror, or nil when downloading from the canonical source.
func (c *Config) ActiveMirror() *MirrorConfig {
	if c.DownloadSource == SourceDefault {
		return nil
	}
	mirror, ok := c.Mirrors[c.DownloadSource]
	if !ok {
		return nil
	}
	return &mirror
}

// HashChecksEnabled reports whether library, asset and jar hashes are enforced.
func (c *Config) HashChecksEnabled() bool {
	return c.CheckLibraryHashes == nil || *c.CheckLibraryHashes
}

// ManifestVerificationEnabled reports whether version manifests are hash-verified.
func (c *Config) ManifestVerificationEnabled() bool {
	return c.VerifyManifest == nil || *c.VerifyManifest
}

// Layout returns the directory layout rooted at the expanded home directory.
func (c *Config) Layout() (Layout, error) {
	home, err := expandHome(c.HomeDir)
	if err != nil {
		return Layout{}, err
	}
	return Layout{Root: home}, nil
}

// JournalPath returns the journal database location.
func (c *Config) JournalPath(layout Layout) string {
	if c.Journal.Path != "" {
		if p, err := expandHome(c.Journal.Path); err == nil {
			return p
		}
	}
	return filepath.Join(layout.Root, "journal.db")
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return filepath.Clean(path), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve user home directory")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func decodeConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse configuration")
	}
	return &cfg, nil
}
