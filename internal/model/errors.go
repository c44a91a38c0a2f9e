package model

import (
	"encoding/json"
	"time"
)

// ErrorInfo holds structured failure information for a generation run.
type ErrorInfo struct {
	FailedStep string `json:"failed_step"`
	Message    string `json:"message"`
	Retryable  bool   `json:"retryable"`
	FailedAt   string `json:"failed_at"`
}

// NewErrorInfo builds an ErrorInfo stamped with the current time.
func NewErrorInfo(step, message string) ErrorInfo {
	return ErrorInfo{
		FailedStep: step,
		Message:    message,
		Retryable:  true,
		FailedAt:   time.Now().UTC().Format(time.RFC3339),
	}
}

// ToJSON serializes ErrorInfo to a JSON string.
func (e ErrorInfo) ToJSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}
