package engine_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/named-data/ndnplay/std/engine"
	"github.com/named-data/ndnplay/std/engine/face"
	tu "github.com/named-data/ndnplay/std/utils/testutils"
	"github.com/stretchr/testify/require"
)

func TestNewFaceFromUri(t *testing.T) {
	tu.SetT(t)

	f := tu.NoErr(engine.NewFaceFromUri("unix:///run/nfd/nfd.sock", false))
	require.IsType(t, &face.StreamFace{}, f)
	require.True(t, f.IsLocal())
	require.Equal(t, "stream-face (unix:///run/nfd/nfd.sock)", f.(*face.StreamFace).String())

	f = tu.NoErr(engine.NewFaceFromUri("tcp4://127.0.0.1:6363", false))
	require.False(t, f.IsLocal())

	f = tu.NoErr(engine.NewFaceFromUri("wss://ndn.example.net:9696/ws", false))
	require.IsType(t, &face.WebSocketFace{}, f)

	f = tu.NoErr(engine.NewFaceFromUri("https://ndn.example.net:443/ndn", true))
	require.IsType(t, &face.WebTransportFace{}, f)

	tu.Err(engine.NewFaceFromUri("udp://127.0.0.1:6363", false))
	tu.Err(engine.NewFaceFromUri("::bad", false))
}

func TestClientConfig(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".ndn"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".ndn", "client.conf"),
		[]byte("; local override\ntransport=tcp://10.0.0.1:6363\n"), 0o644))

	t.Setenv("HOME", home)
	t.Setenv("NDN_CLIENT_TRANSPORT", "")
	require.Equal(t, "tcp://10.0.0.1:6363", engine.GetClientConfig().TransportUri)

	t.Setenv("NDN_CLIENT_TRANSPORT", "unix:///tmp/nfd.sock")
	require.Equal(t, "unix:///tmp/nfd.sock", engine.GetClientConfig().TransportUri)
}
