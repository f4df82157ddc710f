package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type configWriter func(dir string, config map[string]interface{}) (string, error)

var configWriters = []struct {
	ext     string
	writeFn configWriter
}{
	{ext: "json", writeFn: writeJSONConfig},
	{ext: "toml", writeFn: writeTOMLConfig},
	{ext: "yaml", writeFn: writeYAMLConfig},
}

func writeJSONConfig(dir string, config map[string]interface{}) (string, error) {
	b, err := json.Marshal(config)
	if err != nil {
		return "", err
	}
	confFile := filepath.Join(dir, "config.json")
	return confFile, os.WriteFile(confFile, b, 0o600)
}

func writeTOMLConfig(dir string, config map[string]interface{}) (string, error) {
	confFile := filepath.Join(dir, "config.toml")
	w, err := os.Create(confFile)
	if err != nil {
		return "", err
	}
	defer w.Close()
	return confFile, toml.NewEncoder(w).Encode(config)
}

func writeYAMLConfig(dir string, config map[string]interface{}) (string, error) {
	confFile := filepath.Join(dir, "config.yaml")
	w, err := os.Create(confFile)
	if err != nil {
		return "", err
	}
	defer w.Close()
	return confFile, yaml.NewEncoder(w).Encode(config)
}

func Test_NewCommand(t *testing.T) {
	config := map[string]interface{}{
		"input":       "from-config.parquet",
		"concurrency": 3,
		"log-level":   "debug",
		"columns":     []string{"a", "b"},
	}

	tests := []struct {
		name      string
		envVarVal string
		args      []string
		expected  string
	}{
		{
			name:     "no vals reads from config",
			expected: "from-config.parquet",
		},
		{
			name:      "reads from env var",
			envVarVal: "from-env.parquet",
			expected:  "from-env.parquet",
		},
		{
			name:     "reads from flag",
			args:     []string{"--input=from-flag.parquet"},
			expected: "from-flag.parquet",
		},
		{
			name:      "flag has highest precedence",
			envVarVal: "from-env.parquet",
			args:      []string{"-i", "from-flag.parquet"},
			expected:  "from-flag.parquet",
		},
	}

	for _, tt := range tests {
		for _, writer := range configWriters {
			t.Run(fmt.Sprintf("%s_%s", tt.name, writer.ext), func(t *testing.T) {
				confFile, err := writer.writeFn(t.TempDir(), config)
				require.NoError(t, err)
				t.Setenv("TEST_CONFIG_PATH", confFile)
				if tt.envVarVal != "" {
					t.Setenv("TEST_INPUT", tt.envVarVal)
				}

				var (
					input       string
					concurrency int
					level       zapcore.Level
					columns     []string
					ran         bool
				)
				program := &Program{
					Name: "test",
					Opts: []Opt{
						{DestP: &input, Flag: "input", Short: 'i', Required: true},
						{DestP: &concurrency, Flag: "concurrency"},
						{DestP: &level, Flag: "log-level"},
						{DestP: &columns, Flag: "columns"},
					},
					Run: func() error {
						ran = true
						return nil
					},
				}

				cmd, err := NewCommand(viper.New(), program)
				require.NoError(t, err)
				cmd.SetArgs(tt.args)
				require.NoError(t, cmd.Execute())

				require.True(t, ran)
				require.Equal(t, tt.expected, input)
				assert.Equal(t, 3, concurrency)
				assert.Equal(t, zapcore.DebugLevel, level)
				assert.Equal(t, []string{"a", "b"}, columns)
			})
		}
	}
}

func Test_Defaults(t *testing.T) {
	t.Setenv("TEST_CONFIG_PATH", "")
	t.Chdir(t.TempDir())

	var (
		timeout time.Duration
		ratio   float64
		verbose bool
		level   zapcore.Level
	)
	program := &Program{
		Name: "test",
		Opts: []Opt{
			{DestP: &timeout, Flag: "timeout", Default: time.Minute},
			{DestP: &ratio, Flag: "ratio", Default: 0.5},
			{DestP: &verbose, Flag: "verbose"},
			{DestP: &level, Flag: "log-level", Default: zapcore.WarnLevel},
		},
		Run: func() error { return nil },
	}

	cmd, err := NewCommand(viper.New(), program)
	require.NoError(t, err)
	cmd.SetArgs([]string{"--verbose"})
	require.NoError(t, cmd.Execute())

	require.Equal(t, time.Minute, timeout)
	require.Equal(t, 0.5, ratio)
	require.True(t, verbose)
	require.Equal(t, zapcore.WarnLevel, level)
}

func Test_RequiredFlag(t *testing.T) {
	t.Setenv("TEST_CONFIG_PATH", "")
	t.Chdir(t.TempDir())

	var input string
	program := &Program{
		Name: "test",
		Opts: []Opt{{DestP: &input, Flag: "input", Required: true}},
		Run:  func() error { return nil },
	}

	cmd, err := NewCommand(viper.New(), program)
	require.NoError(t, err)
	cmd.SetArgs([]string{})
	cmd.SilenceUsage = true
	err = cmd.Execute()
	require.Error(t, err)
	require.Equal(t, `required flag(s) "input" not set`, err.Error())
}

func Test_InvalidLogLevel(t *testing.T) {
	t.Setenv("TEST_CONFIG_PATH", "")
	t.Setenv("TEST_LOG_LEVEL", "chatty")
	t.Chdir(t.TempDir())

	var level zapcore.Level
	_, err := NewCommand(viper.New(), &Program{
		Name: "test",
		Opts: []Opt{{DestP: &level, Flag: "log-level"}},
	})
	require.Error(t, err)
}

func Test_UnknownDestination(t *testing.T) {
	t.Setenv("TEST_CONFIG_PATH", "")
	t.Chdir(t.TempDir())

	var c complex128
	_, err := NewCommand(viper.New(), &Program{
		Name: "test",
		Opts: []Opt{{DestP: &c, Flag: "c"}},
	})
	require.Error(t, err)
}
