// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package buildinfo

import (
	"encoding/json"
	"fmt"
	"runtime"
)

// Set through -ldflags at build time.
var (
	Version = "0.0.0-dev"
	Commit  = ""
	Date    = ""
)

// UserAgent is sent with every indexer request.
func UserAgent() string {
	return fmt.Sprintf("crossseed/%s (%s %s)", Version, runtime.GOOS, runtime.GOARCH)
}

type buildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
}

func String() string {
	return fmt.Sprintf("Version: %v\nCommit: %v\nBuild date: %s\nGo: %s\n", Version, Commit, Date, runtime.Version())
}

func JSON() ([]byte, error) {
	return json.Marshal(buildInfo{
		Version: Version,
		Commit:  Commit,
		Date:    Date,
		Go:      runtime.Version(),
	})
}
