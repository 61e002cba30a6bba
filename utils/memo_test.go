package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMemoFormat(t *testing.T) {
	at := time.UnixMilli(1724932800123)
	memo := GenerateMemo("64f1c2d3e4a5b6c7d8e9fa01", "64f1c2d3e4a5b6c7d8e9fb02", at)

	parts := strings.Split(memo, "-")
	require.Len(t, parts, 4)
	assert.Equal(t, MemoPrefix, parts[0])
	assert.Equal(t, "e9fa01", parts[1])
	assert.Equal(t, "e9fb02", parts[2])
	assert.Len(t, parts[3], 6)
}

func TestGenerateMemoDeterministic(t *testing.T) {
	at := time.UnixMilli(1724932800123)
	first := GenerateMemo("64f1c2d3e4a5b6c7d8e9fa01", "64f1c2d3e4a5b6c7d8e9fb02", at)
	second := GenerateMemo("64f1c2d3e4a5b6c7d8e9fa01", "64f1c2d3e4a5b6c7d8e9fb02", at)
	assert.Equal(t, first, second)
}

func TestGenerateMemoDistinctBuyersSameMillisecond(t *testing.T) {
	// Two buyers hitting checkout in the same millisecond must still get
	// different memos.
	at := time.UnixMilli(1724932800123)
	first := GenerateMemo("64f1c2d3e4a5b6c7d8e9fa01", "64f1c2d3e4a5b6c7d8e9fb02", at)
	second := GenerateMemo("64f1c2d3e4a5b6c7d8e9fa01", "64f1c2d3e4a5b6c7d8e9fc03", at)
	assert.NotEqual(t, first, second)
}

func TestGenerateMemoShortIDs(t *testing.T) {
	memo := GenerateMemo("abc", "xy", time.UnixMilli(42))
	assert.Equal(t, "VYLDO-abc-xy-000042", memo)
}
