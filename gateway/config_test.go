package gateway_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/named-data/ndnplay/fetch"
	"github.com/named-data/ndnplay/gateway"
	tu "github.com/named-data/ndnplay/std/utils/testutils"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	file := filepath.Join(t.TempDir(), "ndnplay.yml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
	return file
}

func chdir(t *testing.T, dir string) {
	wd := tu.NoErr(os.Getwd())
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestDefaultConfig(t *testing.T) {
	tu.SetT(t)
	c := gateway.DefaultConfig()
	require.NoError(t, c.Validate())
	require.Equal(t, ":8080", c.Listen)
	require.Equal(t, fetch.DefaultConcurrency, c.Fetch.Concurrency)
	require.Equal(t, "none", c.Store.Type)

	fc := c.FetchConfig()
	require.Equal(t, 4, fc.Concurrency)
	require.Equal(t, "cubic", fc.Algorithm)
}

func TestLoadConfig(t *testing.T) {
	tu.SetT(t)
	chdir(t, t.TempDir()) // no .env
	file := writeConfig(t, `
listen: 127.0.0.1:9000
transport: tcp://localhost:6363
fetch:
  concurrency: 2
  algorithm: aimd
  initial_window: 8
store:
  type: memory
  capacity: 10
fw_hints:
  /video: /cdn/a
  /video/live: /cdn/b,/cdn/c
log:
  level: debug
  format: json
`)

	c := tu.NoErr(gateway.LoadConfig(file))
	require.Equal(t, "127.0.0.1:9000", c.Listen)
	require.Equal(t, "tcp://localhost:6363", c.Transport)
	require.Equal(t, 2, c.Fetch.Concurrency)
	require.Equal(t, "aimd", c.Fetch.Algorithm)
	require.Equal(t, 8, c.Fetch.InitialWindow)
	require.Equal(t, fetch.DefaultCountCacheSize, c.Fetch.CountCacheSize)
	require.Equal(t, "memory", c.Store.Type)
	require.Equal(t, "/cdn/b,/cdn/c", c.FwHints["/video/live"])
	require.Equal(t, "json", c.Log.Format)
}

func TestLoadConfigErrors(t *testing.T) {
	tu.SetT(t)
	chdir(t, t.TempDir())

	_, err := gateway.LoadConfig(writeConfig(t, "listen: :80\nbogus: 1\n"))
	require.Error(t, err)

	_, err = gateway.LoadConfig(writeConfig(t, "store:\n  type: s3\n"))
	require.ErrorIs(t, err, fetch.ErrConfig)

	_, err = gateway.LoadConfig(writeConfig(t, "store:\n  type: badger\n"))
	require.ErrorIs(t, err, fetch.ErrConfig)

	_, err = gateway.LoadConfig(writeConfig(t, "fetch:\n  concurrency: 0\n"))
	require.ErrorIs(t, err, fetch.ErrConfig)

	_, err = gateway.LoadConfig(writeConfig(t, "log:\n  level: loud\n"))
	require.ErrorIs(t, err, fetch.ErrConfig)

	_, err = gateway.LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}

func TestLoadConfigEnv(t *testing.T) {
	tu.SetT(t)
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("NDNPLAY_STORE=memory\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("NDNPLAY_STORE") })
	t.Setenv("NDNPLAY_LISTEN", ":7000")
	t.Setenv("NDN_CLIENT_TRANSPORT", "wss://example.net/ws/")
	t.Setenv("NDNPLAY_CONCURRENCY", "6")

	c := tu.NoErr(gateway.LoadConfig(""))
	require.Equal(t, ":7000", c.Listen)
	require.Equal(t, "wss://example.net/ws/", c.Transport)
	require.Equal(t, 6, c.Fetch.Concurrency)
	require.Equal(t, "memory", c.Store.Type)

	t.Setenv("NDNPLAY_CONCURRENCY", "many")
	_, err := gateway.LoadConfig("")
	require.ErrorIs(t, err, fetch.ErrConfig)
}
