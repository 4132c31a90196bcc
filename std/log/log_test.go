package log_test

import (
	"bytes"
	"testing"

	"github.com/named-data/ndnplay/std/log"
	"github.com/stretchr/testify/require"
)

type tag struct{}

func (tag) String() string { return "test-tag" }

func TestLevelFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	l := log.NewText(buf)

	l.Debug(tag{}, "hidden")
	require.Empty(t, buf.String())

	l.Info(tag{}, "shown", "key", 1)
	require.Contains(t, buf.String(), "level=INFO")
	require.Contains(t, buf.String(), "tag=test-tag")
	require.Contains(t, buf.String(), "key=1")

	prev := l.SetLevel(log.LevelError)
	require.Equal(t, log.LevelInfo, prev)
	buf.Reset()
	l.Warn(nil, "hidden")
	require.Empty(t, buf.String())
}

func TestNew(t *testing.T) {
	buf := &bytes.Buffer{}
	l, err := log.New(buf, "json", "debug")
	require.NoError(t, err)
	require.Equal(t, log.LevelDebug, l.Level())

	l.Debug(nil, "hello")
	require.Contains(t, buf.String(), `"level":"DEBUG"`)
	require.Contains(t, buf.String(), `"msg":"hello"`)

	_, err = log.New(buf, "xml", "info")
	require.Error(t, err)
	_, err = log.New(buf, "text", "loud")
	require.Error(t, err)
}
