package tools

import (
	"path/filepath"
	"testing"

	"github.com/named-data/ndnplay/fetch"
	tu "github.com/named-data/ndnplay/std/utils/testutils"
	"github.com/stretchr/testify/require"
)

func TestParseHints(t *testing.T) {
	tu.SetT(t)
	hints := tu.NoErr(parseHints([]string{"/a=/hintX", "/a/b=/h1,/h2"}))
	require.Equal(t, map[string]string{"/a": "/hintX", "/a/b": "/h1,/h2"}, hints)

	_, err := parseHints([]string{"/a"})
	require.ErrorIs(t, err, fetch.ErrConfig)
}

func TestOutFile(t *testing.T) {
	require.Equal(t, filepath.Join("out", "video", "seg-1.m4s"), outFile("out", "ndn:/video/seg-1.m4s"))
	require.Equal(t, filepath.Join("out", "a"), outFile("out", "/a/"))
}

func TestCommands(t *testing.T) {
	require.NoError(t, CmdCatChunks.Args(CmdCatChunks, []string{"/a"}))
	require.Error(t, CmdCatChunks.Args(CmdCatChunks, nil))
	require.NoError(t, CmdGateway.Args(CmdGateway, nil))
	require.Error(t, CmdGateway.Args(CmdGateway, []string{"a", "b"}))
	require.Equal(t, "4", CmdCatChunks.Flags().Lookup("concurrency").DefValue)
}
