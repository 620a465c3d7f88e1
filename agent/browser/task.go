package browser

import (
	"bytes"
	"encoding/json"
)

// Messages returned to the calling agent for the non-payload outcomes.
const (
	MsgSubmitFailed  = "Failed to submit task"
	MsgTimedOut      = "Task timed out"
	MsgCompleted     = "Task completed"
	MsgUnknownStatus = "Unknown status"
)

// TaskHandle is the opaque identifier the remote service assigns to a
// submitted objective. It is only meaningful to that service.
type TaskHandle string

// IsZero reports whether the handle is empty.
func (h TaskHandle) IsZero() bool { return h == "" }

// TaskState is the state of a remote task as observed by one status query.
type TaskState string

const (
	TaskProcessing TaskState = "processing"
	TaskCompleted  TaskState = "completed"
	TaskError      TaskState = "error"
)

// TaskStatus is the normalized answer to a status query.
// Result is only set for TaskCompleted.
type TaskStatus struct {
	State   TaskState       `json:"status"`
	Result  json.RawMessage `json:"result,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Processing returns the status of a task that is still running.
func Processing() TaskStatus {
	return TaskStatus{State: TaskProcessing}
}

// Completed returns a completed status carrying payload.
func Completed(payload json.RawMessage, message string) TaskStatus {
	return TaskStatus{State: TaskCompleted, Result: payload, Message: message}
}

// Failed returns an error status.
func Failed(message string) TaskStatus {
	return TaskStatus{State: TaskError, Message: message}
}

// ResultStatus tags an ExecutionResult.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
)

// ExecutionResult is the final outcome of one run, serialized for the agent.
type ExecutionResult struct {
	Status  ResultStatus    `json:"status"`
	Result  json.RawMessage `json:"result,omitempty"`
	Message string          `json:"message"`
}

// SuccessResult builds a success result. An empty payload is reported as null.
func SuccessResult(payload json.RawMessage, message string) ExecutionResult {
	if len(bytes.TrimSpace(payload)) == 0 {
		payload = json.RawMessage("null")
	}
	if message == "" {
		message = MsgCompleted
	}
	return ExecutionResult{Status: StatusSuccess, Result: payload, Message: message}
}

// ErrorResult builds an error result.
func ErrorResult(message string) ExecutionResult {
	return ExecutionResult{Status: StatusError, Message: message}
}

// OK reports whether the run succeeded.
func (r ExecutionResult) OK() bool { return r.Status == StatusSuccess }

// JSON encodes the result as the text handed back to the agent.
func (r ExecutionResult) JSON() string {
	data, err := json.Marshal(r)
	if err != nil {
		// Only an invalid payload can fail here.
		data, _ = json.Marshal(ErrorResult("An error occurred: " + err.Error()))
	}
	return string(data)
}

// serviceMessage returns payload.message when the payload is an object
// carrying a string message field.
func serviceMessage(payload json.RawMessage) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Message
}
