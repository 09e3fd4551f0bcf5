// Package export writes video lists to files for use outside the tool.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"ytanalyzer/internal/duration"
	"ytanalyzer/internal/storage"
	"ytanalyzer/internal/youtube"
)

// Header is the CSV column row.
var Header = []string{"Title", "URL", "Date", "Duration", "Views", "Likes", "Comments"}

// utf8BOM lets spreadsheet applications detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes videos to w as CSV with a leading byte order mark, one row
// per video in input order.
func WriteCSV(w io.Writer, videos []youtube.VideoRecord) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range videos {
		if err := cw.Write(row(&videos[i])); err != nil {
			return fmt.Errorf("write video %s: %w", videos[i].ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes videos to the file at path, creating parent directories.
// The file is replaced only once the whole export has been written.
func SaveCSV(path string, videos []youtube.VideoRecord) error {
	w, err := storage.NewAtomicWriter(path)
	if err != nil {
		return fmt.Errorf("save csv: %w", err)
	}
	if err := WriteCSV(w, videos); err != nil {
		w.Abort()
		return err
	}
	if err := w.Commit(); err != nil {
		return fmt.Errorf("save csv: %w", err)
	}
	return nil
}

func row(v *youtube.VideoRecord) []string {
	date := ""
	if !v.PublishedAt.IsZero() {
		date = v.PublishedAt.UTC().Format("2006-01-02")
	}
	url := v.URL
	if url == "" {
		url = youtube.VideoURL(v.ID)
	}
	return []string{
		v.Title,
		url,
		date,
		duration.Format(v.DurationSeconds),
		strconv.FormatInt(v.Views, 10),
		strconv.FormatInt(v.Likes, 10),
		strconv.FormatInt(v.Comments, 10),
	}
}
