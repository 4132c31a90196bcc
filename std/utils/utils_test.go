package utils_test

import (
	"testing"

	"github.com/named-data/ndnplay/std/utils"
	"github.com/stretchr/testify/require"
)

func TestIf(t *testing.T) {
	require.Equal(t, 1, utils.If(true, 1, 2))
	require.Equal(t, "b", utils.If(false, "a", "b"))
}
