// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package torrents finds local .torrent files and reads their display names.
package torrents

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/anacrolix/torrent/metainfo"
)

// Extension is the suffix of files picked up by Discover.
const Extension = ".torrent"

// maxTorrentFileBytes guards against reading huge files that only carry the suffix.
const maxTorrentFileBytes = 16 << 20

// Torrent is the metadata searched for on indexers.
type Torrent struct {
	Path     string
	Name     string
	InfoHash string
	Size     int64
}

// Discover walks root recursively and returns every .torrent file, sorted.
// Symlinked files are included, symlinked directories are not followed.
func Discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("torrents path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("torrents path %s is not a directory", root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsTorrentFile(path) {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil || !target.Mode().IsRegular() {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk torrents path: %w", err)
	}

	slices.Sort(paths)
	return paths, nil
}

// IsTorrentFile reports whether path has the .torrent suffix, ignoring case.
func IsTorrentFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), Extension)
}

// ReadTorrent decodes a .torrent file.
func ReadTorrent(path string) (Torrent, error) {
	f, err := os.Open(path)
	if err != nil {
		return Torrent{}, err
	}
	defer f.Close()

	var buf bytes.Buffer
	n, err := buf.ReadFrom(io.LimitReader(f, maxTorrentFileBytes+1))
	if err != nil {
		return Torrent{}, fmt.Errorf("read %s: %w", path, err)
	}
	if n > maxTorrentFileBytes {
		return Torrent{}, fmt.Errorf("%s exceeds %d bytes", path, maxTorrentFileBytes)
	}

	return Parse(path, buf.Bytes())
}

// Parse decodes torrent bytes read from path.
func Parse(path string, data []byte) (Torrent, error) {
	mi, err := metainfo.Load(bytes.NewReader(data))
	if err != nil {
		return Torrent{}, fmt.Errorf("failed to parse torrent metainfo %s: %w", path, err)
	}

	info, err := mi.UnmarshalInfo()
	if err != nil {
		return Torrent{}, fmt.Errorf("failed to unmarshal torrent info %s: %w", path, err)
	}

	name := strings.TrimSpace(info.Name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return Torrent{
		Path:     path,
		Name:     name,
		InfoHash: mi.HashInfoBytes().HexString(),
		Size:     info.TotalLength(),
	}, nil
}

// Load discovers and reads every torrent under root. Files that cannot be
// decoded are returned as errors and left out of the result.
func Load(root string) ([]Torrent, []error, error) {
	paths, err := Discover(root)
	if err != nil {
		return nil, nil, err
	}

	var (
		out  = make([]Torrent, 0, len(paths))
		errs []error
	)
	for _, path := range paths {
		t, err := ReadTorrent(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, t)
	}

	return out, errs, nil
}

// Names returns the display names of ts in order.
func Names(ts []Torrent) []string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Name
	}
	return names
}
