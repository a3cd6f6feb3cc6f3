// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"encoding/json"
	"net/http"

	"github.com/MKhiriev/flashsync/models"
)

// payloadView is the JSON form of a sync result. The host key is never
// exposed.
type payloadView struct {
	Result  string `json:"result"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`

	MediaSynced  bool   `json:"media_synced"`
	MediaResult  string `json:"media_result,omitempty"`
	MediaMessage string `json:"media_message,omitempty"`
}

func newPayloadView(p models.Payload) *payloadView {
	v := &payloadView{
		Result:      p.Result.String(),
		Message:     p.Message,
		Detail:      p.Detail,
		MediaSynced: p.MediaSynced,
	}
	if p.MediaSynced {
		v.MediaResult = p.MediaResult.String()
		v.MediaMessage = p.MediaMessage
	}
	return v
}

var resultStatusMap = map[models.ConnectionResultType]int{
	models.Success:          http.StatusOK,
	models.NoChanges:        http.StatusOK,
	models.BadAuth:          http.StatusUnauthorized,
	models.FullSyncRequired: http.StatusConflict,
	models.ClockOff:         http.StatusConflict,
	models.UserAborted:      http.StatusConflict,
	models.BasicCheckFailed: http.StatusUnprocessableEntity,
	models.UpgradeRequired:  http.StatusUpgradeRequired,
	models.ServerAbort:      http.StatusBadGateway,
	models.HTTPError:        http.StatusBadGateway,
	models.ConnectionError:  http.StatusBadGateway,
	models.RemoteDBError:    http.StatusBadGateway,
	models.Disconnected:     http.StatusServiceUnavailable,
}

func statusFromResult(result models.ConnectionResultType) int {
	if status, ok := resultStatusMap[result]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, data any, statusCode int) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "error writing data to JSON", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(jsonData)
}
