package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/AlmonerProjects/almoner"
)

func returnData(w http.ResponseWriter, retData any) {
	statusData(w, "success", retData, 200)
}

func statusData(w http.ResponseWriter, status string, retData any, statusCode int) {
	if err, ok := retData.(error); ok {
		retData = err.Error()
	}
	w.Header().Add("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(struct {
		Status string `json:"status"`
		Data   any    `json:"data"`
	}{
		Status: status,
		Data:   retData,
	})
	if err != nil {
		slog.Warn("Couldn't send return data", slog.Any("err", err))
	}
}

func errorData(w http.ResponseWriter, retData any, errCode int) {
	statusData(w, "error", retData, errCode)
}

// statusError maps service-layer errors to the enveloped JSON response using
// the status code carried by almoner's error taxonomy.
func statusError(w http.ResponseWriter, err error) {
	errorData(w, err, almoner.ErrorCode(err))
}
