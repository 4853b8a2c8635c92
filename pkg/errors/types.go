package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a structured error code
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigLoad    ErrorCode = "CONFIG_LOAD"
	ErrCodeConfigParse   ErrorCode = "CONFIG_PARSE"
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Storage errors
	ErrCodeStorageRead    ErrorCode = "STORAGE_READ"
	ErrCodeStorageWrite   ErrorCode = "STORAGE_WRITE"
	ErrCodeStorageCorrupt ErrorCode = "STORAGE_CORRUPT"

	// Conversation errors
	ErrCodeConversationNotFound ErrorCode = "CONVERSATION_NOT_FOUND"

	// Profile errors
	ErrCodeProfileNotFound ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeProfileInvalid  ErrorCode = "PROFILE_INVALID"

	// Model errors
	ErrCodeModelNotFound ErrorCode = "MODEL_NOT_FOUND"

	// MCP errors
	ErrCodeMCPNotFound  ErrorCode = "MCP_NOT_FOUND"
	ErrCodeMCPDuplicate ErrorCode = "MCP_DUPLICATE"
	ErrCodeMCPInvalid   ErrorCode = "MCP_INVALID"
	ErrCodeMCPConnect   ErrorCode = "MCP_CONNECT"

	// Chat errors
	ErrCodeChatSend ErrorCode = "CHAT_SEND"
	ErrCodeChatBusy ErrorCode = "CHAT_BUSY"

	// Secrets errors
	ErrCodeSecretNotFound ErrorCode = "SECRET_NOT_FOUND"

	// Generic errors
	ErrCodeInternal     ErrorCode = "INTERNAL"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Error represents a structured perch error
type Error struct {
	Code        ErrorCode
	Message     string
	Underlying  error
	Context     map[string]any
	Retryable   bool
	UserMessage string
}

// New creates a new structured error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// Wrap wraps an existing error with perch error context
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
		Context:    make(map[string]any),
	}
}

// WithContext adds context key-value pairs to the error
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithRetryable marks the error as retryable
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithUserMessage sets the human-friendly message shown in error dialogs.
func (e *Error) WithUserMessage(message string) *Error {
	e.UserMessage = message
	return e
}

// Error implements the error interface
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if len(e.Context) > 0 {
		sb.WriteString(" {")
		first := true
		for k, v := range e.Context {
			if !first {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s: %v", k, v))
			first = false
		}
		sb.WriteString("}")
	}

	if e.Underlying != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Underlying))
	}

	return sb.String()
}

// Unwrap returns the underlying error for errors.Is/As
func (e *Error) Unwrap() error {
	return e.Underlying
}

// DisplayMessage returns the message suitable for an error dialog:
// the user message when set, the full error string otherwise.
func (e *Error) DisplayMessage() string {
	if e.UserMessage != "" {
		return e.UserMessage
	}
	return e.Error()
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	perchErr, ok := err.(*Error)
	if !ok {
		return false
	}
	return perchErr.Code == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	perchErr, ok := err.(*Error)
	if !ok {
		return ErrCodeInternal
	}
	return perchErr.Code
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	perchErr, ok := err.(*Error)
	if !ok {
		return false
	}
	return perchErr.Retryable
}
