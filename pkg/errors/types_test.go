package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeProfileNotFound, "profile abc not found")

	if err == nil {
		t.Fatal("New should return non-nil error")
	}
	if err.Code != ErrCodeProfileNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeProfileNotFound)
	}
	if err.Message != "profile abc not found" {
		t.Errorf("Message = %v, want 'profile abc not found'", err.Message)
	}
	if err.Underlying != nil {
		t.Error("Underlying should be nil for New error")
	}
	if err.Retryable {
		t.Error("Retryable should default to false")
	}
}

func TestWrap(t *testing.T) {
	inner := errors.New("disk full")
	err := Wrap(inner, ErrCodeStorageWrite, "saving conversation")

	if err.Underlying != inner {
		t.Error("Underlying should be the wrapped error")
	}
	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Error() should include underlying message, got %q", err.Error())
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, ErrCodeStorageRead, "loading"); err != nil {
		t.Errorf("Wrap(nil) should return nil, got %v", err)
	}
}

func TestErrorString(t *testing.T) {
	err := New(ErrCodeMCPConnect, "spawn failed").WithContext("server", "filesystem")

	s := err.Error()
	if !strings.Contains(s, "[MCP_CONNECT]") {
		t.Errorf("Error() missing code, got %q", s)
	}
	if !strings.Contains(s, "server: filesystem") {
		t.Errorf("Error() missing context, got %q", s)
	}
}

func TestDisplayMessage(t *testing.T) {
	err := New(ErrCodeChatSend, "http 429").WithUserMessage("The model is busy, try again shortly.")
	if got := err.DisplayMessage(); got != "The model is busy, try again shortly." {
		t.Errorf("DisplayMessage = %q", got)
	}

	bare := New(ErrCodeChatSend, "http 429")
	if got := bare.DisplayMessage(); !strings.Contains(got, "http 429") {
		t.Errorf("DisplayMessage fallback = %q", got)
	}
}

func TestIsCode(t *testing.T) {
	err := New(ErrCodeSecretNotFound, "no key for provider")

	if !IsCode(err, ErrCodeSecretNotFound) {
		t.Error("IsCode should match")
	}
	if IsCode(err, ErrCodeInternal) {
		t.Error("IsCode should not match a different code")
	}
	if IsCode(errors.New("plain"), ErrCodeInternal) {
		t.Error("IsCode should be false for plain errors")
	}
	if IsCode(nil, ErrCodeInternal) {
		t.Error("IsCode should be false for nil")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeModelNotFound, "x")); got != ErrCodeModelNotFound {
		t.Errorf("GetCode = %v", got)
	}
	if got := GetCode(errors.New("plain")); got != ErrCodeInternal {
		t.Errorf("GetCode for plain error = %v, want INTERNAL", got)
	}
	if got := GetCode(nil); got != "" {
		t.Errorf("GetCode(nil) = %v, want empty", got)
	}
}

func TestIsRetryable(t *testing.T) {
	err := New(ErrCodeChatSend, "timeout").WithRetryable(true)
	if !IsRetryable(err) {
		t.Error("IsRetryable should be true")
	}
	if IsRetryable(New(ErrCodeInternal, "boom")) {
		t.Error("IsRetryable should default to false")
	}
	if IsRetryable(nil) {
		t.Error("IsRetryable(nil) should be false")
	}
}
