package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDDeterministic(t *testing.T) {
	first := ID("access_virus/Wobble Bass")
	second := ID("access_virus/Wobble Bass")
	require.Equal(t, first, second)
	require.NotZero(t, first)
}

func TestIDDistinguishesInputs(t *testing.T) {
	require.NotEqual(t, ID("access_virus/Bass1"), ID("access_virus/Bass2"))
	require.NotEqual(t, ID("a/b"), ID("b/a"))
}

func TestSumMatchesID(t *testing.T) {
	require.Equal(t, ID("preset"), Sum([]byte("preset")))
}

func TestSumEmpty(t *testing.T) {
	require.Equal(t, Sum(nil), Sum([]byte{}))
}
