package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytanalyzer/internal/youtube"
)

func sampleVideos() []youtube.VideoRecord {
	return []youtube.VideoRecord{
		{
			ID:              "abc",
			Title:           `Tacos, "al pastor" edition`,
			PublishedAt:     time.Date(2024, 2, 29, 23, 30, 0, 0, time.UTC),
			DurationSeconds: 3725,
			Views:           1200,
			Likes:           30,
			Comments:        4,
			URL:             youtube.VideoURL("abc"),
		},
		{ID: "def", Title: "Café ☕", DurationSeconds: 59},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleVideos()))

	data := buf.Bytes()
	require.True(t, bytes.HasPrefix(data, utf8BOM), "missing byte order mark")

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, Header, records[0])
	assert.Equal(t, []string{
		`Tacos, "al pastor" edition`,
		"https://www.youtube.com/watch?v=abc",
		"2024-02-29",
		"1:02:05",
		"1200", "30", "4",
	}, records[1])
	assert.Equal(t, []string{
		"Café ☕",
		"https://www.youtube.com/watch?v=def",
		"",
		"0:59",
		"0", "0", "0",
	}, records[2])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{Header}, records)
}

func TestSaveCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "videos.csv")

	require.NoError(t, SaveCSV(path, sampleVideos()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestSaveCSVReplacesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "videos.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	require.NoError(t, SaveCSV(path, sampleVideos()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
	assert.True(t, bytes.HasPrefix(data, utf8BOM))
}

func TestSaveCSVFailureLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	// A non-empty directory in the way makes the final rename fail.
	path := filepath.Join(dir, "videos.csv")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "keep"), 0o755))

	require.Error(t, SaveCSV(path, sampleVideos()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "videos.csv", entries[0].Name())
	assert.True(t, entries[0].IsDir())
}
