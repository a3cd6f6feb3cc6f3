// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "strings"

// ClientName is the product identifier sent as the first element of the
// client version string.
const ClientName = "flashsync"

// AppBuildInfo carries immutable build-time metadata embedded into binaries.
//
// Values are typically injected by linker flags during CI/CD and reported to
// the sync server through [AppBuildInfo.ClientVersion].
type AppBuildInfo struct {
	buildVersion string
	buildDate    string
	buildCommit  string
}

// NewAppBuildInfo constructs [AppBuildInfo] from the provided build metadata.
func NewAppBuildInfo(buildVersion, buildDate, buildCommit string) AppBuildInfo {
	return AppBuildInfo{
		buildVersion: buildVersion,
		buildDate:    buildDate,
		buildCommit:  buildCommit,
	}
}

// BuildVersion returns the semantic version string of the build.
func (a AppBuildInfo) BuildVersion() string {
	return a.buildVersion
}

// BuildDate returns the build timestamp string.
func (a AppBuildInfo) BuildDate() string {
	return a.buildDate
}

// BuildCommit returns the source-control commit hash used for the build.
func (a AppBuildInfo) BuildCommit() string {
	return a.buildCommit
}

// ClientVersion builds the "cv" value sent with meta and media begin:
// "<client>,<version>,<platform>". Empty parts are reported as "N/A".
func (a AppBuildInfo) ClientVersion(platform string) string {
	version := a.buildVersion
	if version == "" {
		version = "N/A"
	}
	if platform == "" {
		platform = "N/A"
	}
	return strings.Join([]string{ClientName, version, platform}, ",")
}
