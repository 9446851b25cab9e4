package handlers

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestZipDirArchivesLogFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bot.log"), []byte("line one\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "rotated"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "rotated", "bot.log.1"), []byte("old\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	archive, sum, err := zipDir(dir)
	if err != nil {
		t.Fatalf("zipDir: %v", err)
	}

	want := sha256.Sum256(archive)
	if sum != hex.EncodeToString(want[:]) {
		t.Errorf("checksum %q does not match the archive", sum)
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("reopen archive: %v", err)
	}
	names := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		names[f.Name] = string(data)
	}

	if got := names["bot.log"]; got != "line one\n" {
		t.Errorf("bot.log content = %q", got)
	}
	if got := names["rotated/bot.log.1"]; got != "old\n" {
		t.Errorf("rotated entry content = %q", got)
	}
}

func TestZipDirRejectsEmptyDir(t *testing.T) {
	if _, _, err := zipDir(t.TempDir()); err == nil {
		t.Fatal("empty directory produced an archive")
	}
}

func TestZipDirRejectsMissingDir(t *testing.T) {
	if _, _, err := zipDir(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("missing directory produced an archive")
	}
}
