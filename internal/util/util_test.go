package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name     string
		size     int64
		expected string
	}{
		{"Zero bytes", 0, "0 B"},
		{"Max bytes", 1023, "1023 B"},
		{"Exact 1 KB", 1024, "1 KB"},
		{"1.5 KB", 1536, "1.5 KB"},
		{"1.25 KB", 1280, "1.25 KB"},
		{"1.125 KB", 1152, "1.125 KB"},
		{"Small remainder", 1025, "1.0 KB"},
		{"Max KB", 1048575, "1023.999 KB"},
		{"Exact 1 MB", 1 << 20, "1 MB"},
		{"2.25 MB", 2359296, "2.25 MB"},
		{"Exact 1 GB", 1 << 30, "1 GB"},
		{"2.75 GB", 2952790016, "2.75 GB"},
		{"Exact 1 TB", 1 << 40, "1 TB"},
		{"Exact 1 PB", 1 << 50, "1 PB"},
		{"Max int64", 9223372036854775807, "8191.999 PB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatSize(tt.size))
		})
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		name     string
		str      string
		width    int
		expected string
	}{
		{"Empty string", "", 5, "     "},
		{"Short string", "abc", 10, "abc       "},
		{"Exact width", "hello", 5, "hello"},
		{"Too long", "hello world", 10, "hello w..."},
		{"Wide characters", "你好", 8, "你好    "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PadRight(tt.str, tt.width)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.width, runewidth.StringWidth(got))
		})
	}
}

func TestFit(t *testing.T) {
	assert.Equal(t, "", Fit("hello", 0))
	assert.Equal(t, "hello", Fit("hello", 10))
	assert.LessOrEqual(t, runewidth.StringWidth(Fit("a very long device name", 8)), 8)
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		n        int
		expected string
	}{
		{"Short", "hello", 50, "hello"},
		{"Exactly n", strings.Repeat("A", 50), 50, strings.Repeat("A", 50)},
		{"Longer than n", strings.Repeat("A", 60), 50, strings.Repeat("A", 50) + "..."},
		{"Counts runes", strings.Repeat("é", 51), 50, strings.Repeat("é", 50) + "..."},
		{"Zero", "abc", 0, "..."},
		{"Empty", "", 50, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Preview(tt.in, tt.n))
		})
	}
}

func TestCheckDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	exists, isDir, err := CheckDirectory(dir)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.True(t, isDir)

	exists, isDir, err = CheckDirectory(file)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.False(t, isDir)

	exists, _, err = CheckDirectory(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, filepath.Join(home, "Downloads"), ExpandHome("~/Downloads"))
	assert.Equal(t, "/tmp/x", ExpandHome("/tmp/x"))
	assert.Equal(t, "~other", ExpandHome("~other"))
}
