// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package stats

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ionovox/server/internal/apperror"
)

// File is one ingested statistics file, named by the user-stats layout
// <state-dir>/user-stats/<user-name>/<file>.
type File struct {
	Username string
	Name     string
	Rows     []Row
}

// ScanDir walks statsDir, which is expected to contain one subdirectory per
// user name, and ingests every regular file beneath it as a CSV statistics
// upload. A single file failing validation is logged and skipped rather
// than aborting the whole scan, since one user's bad upload shouldn't
// block ingestion of everyone else's.
func ScanDir(statsDir string) ([]File, error) {
	userDirs, err := os.ReadDir(statsDir)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindTransport, "read stats directory", err)
	}

	var files []File
	for _, userDir := range userDirs {
		if !userDir.IsDir() {
			continue
		}
		username := userDir.Name()
		userPath := filepath.Join(statsDir, username)

		entries, err := os.ReadDir(userPath)
		if err != nil {
			slog.Warn("stats: read user directory", "user", username, "error", err)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(userPath, entry.Name())
			rows, err := ingestFile(path)
			if err != nil {
				slog.Warn("stats: ingest file rejected", "user", username, "file", entry.Name(), "error", err)
				continue
			}
			files = append(files, File{Username: username, Name: entry.Name(), Rows: rows})
		}
	}
	return files, nil
}

func ingestFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stats: open %s: %w", path, err)
	}
	defer f.Close()
	return Ingest(f)
}
