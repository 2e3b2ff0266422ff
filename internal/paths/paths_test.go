package paths

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlatform installs deterministic host lookups for one test.
func fakePlatform(t *testing.T, goos string, env map[string]string) {
	t.Helper()
	saved := platform
	t.Cleanup(func() { platform = saved })

	platform.goos = goos
	platform.getenv = func(k string) string { return env[k] }
	platform.getwd = func() (string, error) { return "/work", nil }
	platform.homeDir = func() (string, error) { return "/home/ada", nil }
	platform.userConfigDir = func() (string, error) { return "/Users/ada/Library/Application Support", nil }
}

func TestDefaultDirs(t *testing.T) {
	tests := []struct {
		name       string
		goos       string
		env        map[string]string
		wantConfig string
		wantData   string
	}{
		{
			name:       "linux with XDG variables",
			goos:       "linux",
			env:        map[string]string{"XDG_CONFIG_HOME": "/xdg/config", "XDG_DATA_HOME": "/xdg/data"},
			wantConfig: "/xdg/config/folio",
			wantData:   "/xdg/data/folio",
		},
		{
			name:       "linux falls back to the home directory",
			goos:       "linux",
			wantConfig: "/home/ada/.config/folio",
			wantData:   "/home/ada/.local/share/folio",
		},
		{
			name:       "darwin uses the user config directory",
			goos:       "darwin",
			wantConfig: "/Users/ada/Library/Application Support/folio",
			wantData:   "/Users/ada/Library/Application Support/folio",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakePlatform(t, tt.goos, tt.env)

			got, err := DefaultConfigDir()
			require.NoError(t, err)
			assert.Equal(t, tt.wantConfig, got)

			got, err = DefaultDataDir()
			require.NoError(t, err)
			assert.Equal(t, tt.wantData, got)
		})
	}
}

func TestDefaultDirsError(t *testing.T) {
	fakePlatform(t, "linux", nil)
	platform.homeDir = func() (string, error) { return "", errors.New("no home") }

	_, err := DefaultConfigDir()
	assert.Error(t, err)
}

func TestResolveConfigDir(t *testing.T) {
	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{name: "flag wins over env", flag: "/explicit/config", env: "/env/config", want: "/explicit/config"},
		{name: "env wins when flag empty", env: "/env/config", want: "/env/config"},
		{name: "platform default when both empty", want: "/home/ada/.config/folio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakePlatform(t, "linux", map[string]string{EnvConfigDir: tt.env})
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	tests := []struct {
		name        string
		flag        string
		configValue string
		env         string
		want        string
	}{
		{name: "flag wins over all", flag: "/flag/data", configValue: "/config/data", env: "/env/data", want: "/flag/data"},
		{name: "config.yaml wins over env", configValue: "/config/data", env: "/env/data", want: "/config/data"},
		{name: "env wins when flag and config empty", env: "/env/data", want: "/env/data"},
		{name: "CWD default when all empty", want: "/work/.folio-db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakePlatform(t, "linux", map[string]string{EnvDataDir: tt.env})
			got, err := ResolveDataDir(tt.flag, tt.configValue)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRelativePathsBecomeAbsolute(t *testing.T) {
	fakePlatform(t, "linux", map[string]string{EnvConfigDir: "relative/env"})

	got, err := ResolveConfigDir("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)

	got, err = ResolveDataDir("relative/path", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
}
