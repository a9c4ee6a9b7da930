package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/ticket-record/constants"
)

type FileResult struct {
	Path         string
	HashHex      string
	Deduplicated bool
	Err          string
}

type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Deduplicated uint32
	Failed       uint32
}

// ScanDirectory walks root for ticket images and text files. Files whose
// content hash was already seen are marked Deduplicated.
func ScanDirectory(root string, skipHidden bool, logger *slog.Logger) ([]FileResult, DirStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root_path is required")
	}

	var (
		results []FileResult
		stats   DirStats
		seen    = map[string]string{}
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil // continue walking
		}
		if skipHidden && path != root && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !Accepted(path) {
			return nil
		}
		stats.Matched++

		sum, err := hashFile(path)
		if err != nil {
			logger.Warn("ingest.hash.failed", "path", path, "error", err)
			results = append(results, FileResult{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		res := FileResult{Path: path, HashHex: sum}
		if first, dup := seen[sum]; dup {
			logger.Info("ingest.deduplicated", "path", path, "same_as", first)
			res.Deduplicated = true
			stats.Deduplicated++
		} else {
			seen[sum] = path
		}
		results = append(results, res)
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}

// Accepted reports whether path has a ticket image or text extension.
func Accepted(path string) bool {
	ext := constants.NormalizeExt(filepath.Ext(path))
	return constants.IsImage(ext) || constants.IsText(ext)
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
