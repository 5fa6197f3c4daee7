package utils

import (
	"encoding/json"
	"net/http"
)

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func BuildSuccessResponse(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, Response{Success: true, Message: message, Data: data})
}

func BuildErrorResponse(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, Response{Success: false, Message: message, Data: data})
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
