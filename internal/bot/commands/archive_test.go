package commands

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
)

func TestArchiveRoundTrip(t *testing.T) {
	files := []Downloaded{
		{Emoji: Emoji{Name: "blob", Ext: "png"}, Data: bytes.Repeat([]byte("png-bytes"), 100)},
		{Emoji: Emoji{Name: "dance", Ext: "gif"}, Data: []byte("gif-bytes")},
	}
	modified := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	data, err := Archive(files, modified)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(reader.File) != len(files) {
		t.Fatalf("entries = %d, want %d", len(reader.File), len(files))
	}
	for i, entry := range reader.File {
		if entry.Name != files[i].FileName() {
			t.Fatalf("entry %d name = %q, want %q", i, entry.Name, files[i].FileName())
		}
		if entry.Method != zip.Deflate {
			t.Fatalf("entry %d method = %d", i, entry.Method)
		}
		rc, err := entry.Open()
		if err != nil {
			t.Fatalf("open entry: %v", err)
		}
		got, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatalf("read entry: %v", err)
		}
		if !bytes.Equal(got, files[i].Data) {
			t.Fatalf("entry %d content mismatch", i)
		}
	}
}

func TestArchiveEmpty(t *testing.T) {
	data, err := Archive(nil, time.Now())
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(reader.File) != 0 {
		t.Fatalf("entries = %d, want 0", len(reader.File))
	}
}
