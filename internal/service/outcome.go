// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import "github.com/MKhiriev/flashsync/models"

// Outcome is the terminal state of one orchestrator run.
type Outcome struct {
	Result models.ConnectionResultType
	// Detail is a server supplied message or the reason behind Result.
	Detail string
	// MediaUsn is the server media cursor reported by meta.
	MediaUsn int
}

func outcome(result models.ConnectionResultType) Outcome {
	return Outcome{Result: result}
}
