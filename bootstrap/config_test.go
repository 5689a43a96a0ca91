package bootstrap_test

import (
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"

	"github.com/blazer-engine/blazer/bootstrap"
)

func mapLookup(values map[string]string) bootstrap.LookupFunc {
	return func(key, def string) string {
		if v, ok := values[key]; ok {
			return v
		}
		return def
	}
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := bootstrap.ParseConfig(mapLookup(nil))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, cfg, qt.DeepEquals, bootstrap.DefaultConfig())
}

func TestParseConfig(t *testing.T) {
	cfg, err := bootstrap.ParseConfig(mapLookup(map[string]string{
		bootstrap.EnvAppName:            "viewer",
		bootstrap.EnvAppVersion:         "2.1.7",
		bootstrap.EnvEngineVersion:      "0.2",
		bootstrap.EnvAPIVersion:         "1.2",
		bootstrap.EnvLayers:             "",
		bootstrap.EnvInstanceExtensions: "VK_KHR_get_physical_device_properties2, VK_EXT_debug_utils",
		bootstrap.EnvDeviceExtensions:   "VK_KHR_swapchain,VK_KHR_maintenance1",
		bootstrap.EnvDebugSeverity:      "warning, ERROR",
		bootstrap.EnvDebugTypes:         "validation,performance",
	}))
	qt.Assert(t, err, qt.IsNil)

	qt.Assert(t, cfg, qt.DeepEquals, bootstrap.Config{
		Identity: bootstrap.ApplicationIdentity{
			Name:          "viewer",
			Version:       bootstrap.NewVersion(2, 1, 7),
			EngineName:    "Blazer",
			EngineVersion: bootstrap.NewVersion(0, 2, 0),
			APIVersion:    bootstrap.NewVersion(1, 2, 0),
		},
		InstanceExtensions: []string{"VK_KHR_get_physical_device_properties2", "VK_EXT_debug_utils"},
		DeviceExtensions:   []string{"VK_KHR_swapchain", "VK_KHR_maintenance1"},
		DebugSeverities:    bootstrap.SeverityWarning | bootstrap.SeverityError,
		DebugTypes:         bootstrap.TypeValidation | bootstrap.TypePerformance,
	})
}

func TestParseConfigNone(t *testing.T) {
	cfg, err := bootstrap.ParseConfig(mapLookup(map[string]string{
		bootstrap.EnvDebugSeverity: "none",
		bootstrap.EnvDebugTypes:    "",
	}))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, cfg.DebugSeverities, qt.Equals, bootstrap.Severity(0))
	qt.Assert(t, cfg.DebugTypes, qt.Equals, bootstrap.MessageType(0))
}

func TestParseConfigInvalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
		err   string
	}{
		{bootstrap.EnvAppVersion, "one", `BLAZER_APP_VERSION: invalid version "one": .*`},
		{bootstrap.EnvAPIVersion, "1.2.3.4", `BLAZER_API_VERSION: invalid version "1.2.3.4"`},
		{bootstrap.EnvAPIVersion, "1.1024.0", `BLAZER_API_VERSION: invalid version "1.1024.0": minor exceeds 1023`},
		{bootstrap.EnvAppVersion, "2.0.4096", `BLAZER_APP_VERSION: invalid version "2.0.4096": patch exceeds 4095`},
		{bootstrap.EnvEngineVersion, "", `BLAZER_ENGINE_VERSION: invalid version ""`},
		{bootstrap.EnvDebugSeverity, "warning,fatal", `BLAZER_DEBUG_SEVERITY: unknown value "fatal"`},
		{bootstrap.EnvDebugTypes, "validation,loader", `BLAZER_DEBUG_TYPES: unknown value "loader"`},
	}

	for _, test := range tests {
		t.Run(test.key, func(t *testing.T) {
			_, err := bootstrap.ParseConfig(mapLookup(map[string]string{test.key: test.value}))
			qt.Assert(t, err, qt.ErrorMatches, test.err)
		})
	}
}

func TestWriteEnv(t *testing.T) {
	cfg := bootstrap.DefaultConfig()
	cfg.InstanceExtensions = []string{"VK_KHR_get_physical_device_properties2"}
	cfg.DebugSeverities = bootstrap.SeverityWarning | bootstrap.SeverityError

	path := filepath.Join(t.TempDir(), "blazer.env")
	qt.Assert(t, cfg.WriteEnv(path), qt.IsNil)

	values, err := godotenv.Read(path)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, values[bootstrap.EnvDebugSeverity], qt.Equals, "warning,error")

	parsed, err := bootstrap.ParseConfig(mapLookup(values))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, parsed, qt.DeepEquals, cfg)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blazer.env")
	err := godotenv.Write(map[string]string{
		bootstrap.EnvAppName: "from file",
		bootstrap.EnvLayers:  "",
	}, path)
	qt.Assert(t, err, qt.IsNil)

	// envy.Load writes through to the process environment.
	t.Setenv(bootstrap.EnvAppName, "")
	t.Setenv(bootstrap.EnvLayers, "")

	envy.Temp(func() {
		cfg, err := bootstrap.LoadConfig(path)
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, cfg.Identity.Name, qt.Equals, "from file")
		qt.Assert(t, cfg.Layers, qt.HasLen, 0)
		qt.Assert(t, cfg.DeviceExtensions, qt.DeepEquals, []string{bootstrap.SwapchainExtension})
	})
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := bootstrap.LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	qt.Assert(t, err, qt.ErrorMatches, `load .*missing.env: .*`)
}
