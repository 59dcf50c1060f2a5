package commands

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// archiveLevel trades a little speed for smaller archives.
const archiveLevel = 7

// Archive zips the downloaded emojis, one entry per emoji.
func Archive(files []Downloaded, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	writer.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, archiveLevel)
	})
	for _, file := range files {
		entry, err := writer.CreateHeader(&zip.FileHeader{
			Name:     file.FileName(),
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("create entry %s: %w", file.FileName(), err)
		}
		if _, err := entry.Write(file.Data); err != nil {
			return nil, fmt.Errorf("write entry %s: %w", file.FileName(), err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}
