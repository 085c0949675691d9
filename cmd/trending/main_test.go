package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"GITHUB_TOKEN", "GITHUB_API_URL", "TRENDING_DB", "TRENDING_HTTP_ADDR",
		"TRENDING_VERBOSE", "TRENDING_OFFLINE", "SYNC_INTERVAL_MINUTES", "FETCH_TIMEOUT_SECONDS"} {
		t.Setenv(key, "")
	}
}

func TestRootCmd_Help(t *testing.T) {
	for _, arg := range []string{"-h", "--help"} {
		out := &bytes.Buffer{}
		cmd := newRootCmd(strings.NewReader(""), out, out)
		cmd.SetArgs([]string{arg})

		require.NoError(t, cmd.Execute())
		help := out.String()
		assert.Contains(t, help, "--time")
		assert.Contains(t, help, "--verbose")
		assert.Contains(t, help, "--offline")
		assert.NotContains(t, help, "=== Github trending repos v1 ===", "session must not start")
	}
}

func TestRootCmd_RejectsPositionalArgs(t *testing.T) {
	out := &bytes.Buffer{}
	cmd := newRootCmd(strings.NewReader(""), out, out)
	cmd.SetArgs([]string{"extra"})

	assert.Error(t, cmd.Execute())
}

func TestBuildConfig(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name     string
		args     []string
		interval time.Duration
		offline  bool
		verbose  bool
		db       string
	}{
		{name: "defaults", args: nil, interval: 5 * time.Minute, db: "db.sqlite"},
		{name: "short flags", args: []string{"-t", "10", "-v", "-f"}, interval: 10 * time.Minute, offline: true, verbose: true, db: "db.sqlite"},
		{name: "long flags", args: []string{"--time", "2", "--offline", "--db", "cache.sqlite"}, interval: 2 * time.Minute, offline: true, db: "cache.sqlite"},
		{name: "non-numeric time", args: []string{"-t", "soon"}, interval: 5 * time.Minute, db: "db.sqlite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
			require.NoError(t, cmd.ParseFlags(tt.args))

			opts := &options{}
			opts.interval, _ = cmd.Flags().GetString("time")
			opts.verbose, _ = cmd.Flags().GetBool("verbose")
			opts.offline, _ = cmd.Flags().GetBool("offline")
			opts.db, _ = cmd.Flags().GetString("db")

			cfg, err := buildConfig(cmd, opts)
			require.NoError(t, err)
			assert.Equal(t, tt.interval, cfg.Sync.Interval)
			assert.Equal(t, tt.offline, cfg.Offline)
			assert.Equal(t, tt.verbose, cfg.Verbose)
			assert.Equal(t, tt.db, cfg.DBLocation)
		})
	}
}

func TestRootCmd_OfflineSession(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := newRootCmd(strings.NewReader("list\nrefresh\nq\n"), out, errOut)
	cmd.SetArgs([]string{"-f", "--db", filepath.Join(t.TempDir(), "db.sqlite")})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "=== Github trending repos v1 ===")
	assert.Contains(t, out.String(), "Refresh is disabled in offline mode.")
	assert.Contains(t, errOut.String(), "Launching in offline mode")
}
