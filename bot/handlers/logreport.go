package handlers

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/m3rciful/dallebot/core/logger"
	tghelpers "github.com/m3rciful/dallebot/core/telegram/helpers"
	"log/slog"

	"github.com/m3rciful/dallebot/bot/texts"

	tele "gopkg.in/telebot.v4"
)

// LogReport zips the configured log directory and sends it to the admin as
// a document, with the archive's SHA-256 digest in the caption.
func LogReport(d Deps) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)

		// Drain the async writer so the archive includes current lines.
		if err := logger.Flush(); err != nil {
			logger.Warn(ctx, "tg", "logreport.flush_failed",
				slog.String("err", err.Error()),
			)
		}

		archive, sum, err := zipDir(d.Cfg.Logging.Dir)
		if err != nil {
			logger.Warn(ctx, "tg", "logreport.failed",
				slog.String("dir", d.Cfg.Logging.Dir),
				slog.String("err", err.Error()),
			)
			return tghelpers.SendText(c, texts.AdminLogReportEmpty)
		}

		doc := &tele.Document{
			File:     tele.FromReader(bytes.NewReader(archive)),
			FileName: fmt.Sprintf("logs-%s.zip", time.Now().Format("20060102-150405")),
			Caption:  texts.LogReportCaption(sum),
		}
		return c.Send(doc, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
	}
}

// zipDir packs every regular file under dir into an in-memory archive and
// returns it together with its SHA-256 hex digest. An empty or missing
// directory is an error.
func zipDir(dir string) ([]byte, string, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	files := 0
	walkErr := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := io.Copy(w, f); err != nil {
			return err
		}
		files++
		return nil
	})
	if walkErr != nil {
		return nil, "", fmt.Errorf("logreport: walk %s: %w", dir, walkErr)
	}
	if files == 0 {
		return nil, "", fmt.Errorf("logreport: no files under %s", dir)
	}
	if err := zw.Close(); err != nil {
		return nil, "", fmt.Errorf("logreport: close archive: %w", err)
	}

	sum := sha256.Sum256(buf.Bytes())
	return buf.Bytes(), hex.EncodeToString(sum[:]), nil
}
