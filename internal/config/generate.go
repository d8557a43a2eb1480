// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const defaultConfigTemplate = `# config.toml - Auto-generated on first run

# Directory scanned recursively for .torrent files
torrentsPath = ""

# script: search once and exit
# daemon: search every interval and when torrent files change
runMode = "script"
#interval = "6h"
#watch = true

# Only "search" is supported
torrentMode = "search"

# Per request timeout for indexer calls
#requestTimeout = "30s"
# Upper bound for a whole pass, 0 disables it
#runTimeout = "0s"

# Shared worker pool size and concurrent requests per indexer
#workers = 8
#perIndexerConcurrency = 2

# Total attempts for connection failures, 1 disables retries
#retryAttempts = 1

# Use tv/movie searches when the indexer advertises them
#smartQueries = false

# Log settings
logLevel = "info"
#logPath = ""
#logMaxSize = 50
#logMaxBackups = 3

# Prometheus metrics
#metricsEnabled = false
#metricsHost = "127.0.0.1"
#metricsPort = 9074
# Comma separated user:password pairs protecting /metrics
#metricsBasicAuthUsers = ""

# One table per indexer, keyed by name. Omitting enabled means enabled.
#[indexers.example]
#enabled = true
#url = "http://localhost:9117/api/v2.0/indexers/example/results/torznab/api"
#apiKey = ""
`

// WriteDefaultConfig writes config.toml into dir. It returns the path and
// false when a file already exists there.
func WriteDefaultConfig(dir string) (string, bool, error) {
	if dir == "" {
		dir = GetDefaultConfigDir()
	}
	path := filepath.Join(dir, configFileName)

	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return path, false, fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return path, false, fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o640); err != nil {
		return path, false, fmt.Errorf("failed to write config file: %w", err)
	}

	return path, true, nil
}
