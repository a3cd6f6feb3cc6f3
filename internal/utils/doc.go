// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package utils provides general-purpose helper utilities used across
// different parts of the client: HTTP client construction, media checksums,
// session keys and identifiers, and network reachability checks.
package utils
