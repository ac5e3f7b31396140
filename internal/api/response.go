package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// apiResponse is the envelope every endpoint returns.
type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Result  any    `json:"result,omitempty"`
}

func success(result any) apiResponse {
	return apiResponse{Status: "ok", Result: result}
}

func errorResponse(message string) apiResponse {
	return apiResponse{Status: "error", Message: message}
}

// writeJSONResponse marshals before writing headers so encoding errors can
// still produce a well-formed error response.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response apiResponse) {
	jsonData, err := json.Marshal(response)
	if err != nil {
		slog.Error("failed to marshal API response", "error", err)
		jsonData = []byte(`{"status":"error","message":"Internal server error"}`)
		statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(jsonData); err != nil {
		slog.Error("failed to write API response", "error", err)
	}
}
