package utils

import (
	"encoding/json"
	"net/http"
)

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteOK writes a 200 OK response with optional data
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: data})
}

// WriteMessage writes a 200 OK response carrying only a message
func WriteMessage(w http.ResponseWriter, message string) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: message})
}

// WriteFailure writes the failure body shared by every error response:
// {"success": false, "message": ..., "code": ..., ...extra}. Extra fields never
// replace the three fixed keys.
func WriteFailure(w http.ResponseWriter, status int, code, message string, extra map[string]interface{}) error {
	body := make(map[string]interface{}, len(extra)+3)
	for k, v := range extra {
		body[k] = v
	}
	body["success"] = false
	body["message"] = message
	body["code"] = code

	return WriteJSON(w, status, body)
}
