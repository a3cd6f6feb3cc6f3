// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// ConnectionResultType is the closed set of outcomes a sync can end with.
type ConnectionResultType int

// Outcomes. GenericError is the fallback for failures that fit nothing else.
const (
	Success ConnectionResultType = iota
	NoChanges
	FullSyncRequired
	ClockOff
	BadAuth
	BasicCheckFailed
	DBError
	SanityCheckError
	ServerAbort
	UserAborted
	FinishError
	RemoteDBError
	OverwriteError
	UpgradeRequired
	ConnectionError
	IOError
	HTTPError
	OutOfMemory
	Disconnected
	GenericError
)

var resultNames = [...]string{
	Success:          "success",
	NoChanges:        "noChanges",
	FullSyncRequired: "fullSync",
	ClockOff:         "clockOff",
	BadAuth:          "badAuth",
	BasicCheckFailed: "basicCheckFailed",
	DBError:          "dbError",
	SanityCheckError: "sanityCheckError",
	ServerAbort:      "serverAbort",
	UserAborted:      "userAborted",
	FinishError:      "finishError",
	RemoteDBError:    "remoteDbError",
	OverwriteError:   "overwriteError",
	UpgradeRequired:  "upgradeRequired",
	ConnectionError:  "connectionError",
	IOError:          "IOException",
	HTTPError:        "error",
	OutOfMemory:      "OutOfMemoryError",
	Disconnected:     "disconnected",
	GenericError:     "genericError",
}

// String returns the wire/log token of the outcome.
func (t ConnectionResultType) String() string {
	if t < 0 || int(t) >= len(resultNames) {
		return "unknown"
	}
	return resultNames[t]
}

// OK reports whether the outcome ends the sync without error.
func (t ConnectionResultType) OK() bool {
	return t == Success || t == NoChanges
}
