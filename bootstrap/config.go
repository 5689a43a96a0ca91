package bootstrap

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
)

// Configuration keys.
const (
	EnvAppName            = "BLAZER_APP_NAME"
	EnvAppVersion         = "BLAZER_APP_VERSION"
	EnvEngineName         = "BLAZER_ENGINE_NAME"
	EnvEngineVersion      = "BLAZER_ENGINE_VERSION"
	EnvAPIVersion         = "BLAZER_API_VERSION"
	EnvLayers             = "BLAZER_LAYERS"
	EnvInstanceExtensions = "BLAZER_INSTANCE_EXTENSIONS"
	EnvDeviceExtensions   = "BLAZER_DEVICE_EXTENSIONS"
	EnvDebugSeverity      = "BLAZER_DEBUG_SEVERITY"
	EnvDebugTypes         = "BLAZER_DEBUG_TYPES"
)

// Config is the startup configuration of a bootstrap.
type Config struct {
	Identity ApplicationIdentity

	Layers             []string
	InstanceExtensions []string
	DeviceExtensions   []string

	DebugSeverities Severity
	DebugTypes      MessageType
}

// DefaultConfig enables validation and every diagnostic message.
func DefaultConfig() Config {
	return Config{
		Identity: ApplicationIdentity{
			Name:          "The black window",
			Version:       NewVersion(0, 1, 0),
			EngineName:    "Blazer",
			EngineVersion: NewVersion(0, 1, 0),
			APIVersion:    NewVersion(1, 3, 0),
		},
		Layers:           []string{ValidationLayer},
		DeviceExtensions: []string{SwapchainExtension},
		DebugSeverities:  SeverityAll,
		DebugTypes:       TypeAll,
	}
}

// LookupFunc returns the value for key, or def when key is unset.
type LookupFunc func(key, def string) string

// LoadConfig loads the given .env files into the environment and parses
// the configuration from it.
func LoadConfig(files ...string) (Config, error) {
	if len(files) > 0 {
		if err := envy.Load(files...); err != nil {
			return Config{}, errors.Wrapf(err, "load %s", strings.Join(files, ", "))
		}
	}
	return ParseConfig(envy.Get)
}

// ParseConfig builds a Config from DefaultConfig, overriding every key that
// lookup has a value for.
func ParseConfig(lookup LookupFunc) (Config, error) {
	cfg := DefaultConfig()
	var err error

	cfg.Identity.Name = lookup(EnvAppName, cfg.Identity.Name)
	cfg.Identity.EngineName = lookup(EnvEngineName, cfg.Identity.EngineName)

	versions := []struct {
		key    string
		target *Version
	}{
		{EnvAppVersion, &cfg.Identity.Version},
		{EnvEngineVersion, &cfg.Identity.EngineVersion},
		{EnvAPIVersion, &cfg.Identity.APIVersion},
	}
	for _, v := range versions {
		*v.target, err = ParseVersion(lookup(v.key, v.target.String()))
		if err != nil {
			return Config{}, errors.Wrap(err, v.key)
		}
	}

	cfg.Layers = splitList(lookup(EnvLayers, strings.Join(cfg.Layers, ",")))
	cfg.InstanceExtensions = splitList(lookup(EnvInstanceExtensions, strings.Join(cfg.InstanceExtensions, ",")))
	cfg.DeviceExtensions = splitList(lookup(EnvDeviceExtensions, strings.Join(cfg.DeviceExtensions, ",")))

	severities, err := parseMask(lookup(EnvDebugSeverity, "all"), severityNames, uint32(SeverityAll))
	if err != nil {
		return Config{}, errors.Wrap(err, EnvDebugSeverity)
	}
	cfg.DebugSeverities = Severity(severities)

	types, err := parseMask(lookup(EnvDebugTypes, "all"), typeNames, uint32(TypeAll))
	if err != nil {
		return Config{}, errors.Wrap(err, EnvDebugTypes)
	}
	cfg.DebugTypes = MessageType(types)

	return cfg, nil
}

// Env returns the configuration as key/value pairs accepted by ParseConfig.
func (c Config) Env() map[string]string {
	return map[string]string{
		EnvAppName:            c.Identity.Name,
		EnvAppVersion:         c.Identity.Version.String(),
		EnvEngineName:         c.Identity.EngineName,
		EnvEngineVersion:      c.Identity.EngineVersion.String(),
		EnvAPIVersion:         c.Identity.APIVersion.String(),
		EnvLayers:             strings.Join(c.Layers, ","),
		EnvInstanceExtensions: strings.Join(c.InstanceExtensions, ","),
		EnvDeviceExtensions:   strings.Join(c.DeviceExtensions, ","),
		EnvDebugSeverity:      strings.ReplaceAll(c.DebugSeverities.String(), "|", ","),
		EnvDebugTypes:         strings.ReplaceAll(c.DebugTypes.String(), "|", ","),
	}
}

// WriteEnv writes the configuration to path in .env format.
func (c Config) WriteEnv(path string) error {
	return errors.Wrapf(godotenv.Write(c.Env(), path), "write %s", path)
}

func splitList(s string) []string {
	var list []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

func parseMask(s string, names []flagName, all uint32) (uint32, error) {
	var mask uint32
	for _, item := range splitList(strings.ToLower(s)) {
		switch item {
		case "all":
			mask |= all
			continue
		case "none":
			continue
		}

		found := false
		for _, n := range names {
			if n.name == item {
				mask |= n.bit
				found = true
				break
			}
		}
		if !found {
			return 0, errors.Newf("unknown value %q", item)
		}
	}
	return mask, nil
}
