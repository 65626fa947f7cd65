// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	GitCommit = ""
	GitDirty  = ""
	BuildTime = ""
	Version   = "0.1.0-dev"
)

// Build is the resolved build information.
type Build struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Dirty     bool   `json:"dirty"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Current resolves the ldflags values, filling gaps from the embedded
// VCS settings.
func Current() Build {
	build := Build{
		Version:   Version,
		Commit:    GitCommit,
		Dirty:     GitDirty == "true",
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		fillFromSettings(&build, info.Settings)
	}
	if build.Commit == "" {
		build.Commit = "unknown"
	}
	if build.BuildTime == "" {
		build.BuildTime = "unknown"
	}
	return build
}

func fillFromSettings(build *Build, settings []debug.BuildSetting) {
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			if build.Commit == "" {
				build.Commit = setting.Value
				if len(build.Commit) > 12 {
					build.Commit = build.Commit[:12]
				}
			}
		case "vcs.time":
			if build.BuildTime == "" {
				build.BuildTime = setting.Value
			}
		case "vcs.modified":
			if GitDirty == "" {
				build.Dirty = setting.Value == "true"
			}
		}
	}
}

// Info returns the one-line form printed by "version".
func Info() string {
	return Current().String()
}

func (b Build) String() string {
	dirty := ""
	if b.Dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", b.Version, b.Commit, dirty, b.BuildTime)
}

// Full adds the Go version and platform to Info.
func (b Build) Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s", b, b.GoVersion, b.Platform)
}
