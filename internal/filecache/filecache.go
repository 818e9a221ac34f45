package filecache

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/contractbot/contract-reminder/internal/common"
	"github.com/contractbot/contract-reminder/internal/utils"
)

// Cache keeps the latest synced workbook on disk. SaveLatest replaces
// the visible file atomically: a half-written download can never become
// the file GetLatest returns.
type Cache struct {
	dir    string
	logger *slog.Logger
}

func New(dir string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, common.WrapError(err, "create file cache directory")
	}
	return &Cache{dir: dir, logger: logger}, nil
}

// GetLatest returns the path of the newest cached workbook, or false
// when nothing has been synced yet.
func (c *Cache) GetLatest() (string, bool) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		c.logger.Warn("file cache unreadable", "dir", c.dir, "error", err)
		return "", false
	}

	var latest string
	var latestMod int64
	for _, e := range entries {
		if e.IsDir() || e.Name()[0] == '.' {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().UnixNano() > latestMod {
			latest = filepath.Join(c.dir, e.Name())
			latestMod = info.ModTime().UnixNano()
		}
	}
	if latest == "" {
		return "", false
	}
	return latest, true
}

// SaveLatest writes data under a sanitized form of filename and makes
// it the file GetLatest returns.
func (c *Cache) SaveLatest(data []byte, filename string) (string, error) {
	name := utils.SanitizeFilename(filename)
	target := filepath.Join(c.dir, name)

	tmp, err := os.CreateTemp(c.dir, ".download-*")
	if err != nil {
		return "", common.WrapError(err, "create temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", common.WrapError(err, "write workbook")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", common.WrapError(err, "close temp file")
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return "", common.WrapError(err, "replace latest workbook")
	}

	c.logger.Debug("workbook cached", "path", target, "bytes", len(data))
	return target, nil
}
