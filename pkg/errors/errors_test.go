package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := NewAppError(ErrCodeInvalidInput, "missing contentId", http.StatusBadRequest)
	expected := "INVALID_INPUT: missing contentId"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestAppError_WithCause(t *testing.T) {
	originalErr := errors.New("connection reset")
	err := WrapError(originalErr, ErrCodeInternal, "publish failed", http.StatusInternalServerError)

	if err.Cause != originalErr {
		t.Errorf("Cause = %v, want %v", err.Cause, originalErr)
	}
	if !errors.Is(err, originalErr) {
		t.Errorf("errors.Is should match the wrapped cause")
	}

	errorMsg := err.Error()
	if !contains(errorMsg, "connection reset") {
		t.Errorf("Error() should contain cause, got: %v", errorMsg)
	}
}

func TestAppError_WithContext(t *testing.T) {
	err := NewAppError(ErrCodeNotFound, "stream not found", http.StatusNotFound)
	err.WithContext("streamId", "42").WithContext("viewers", 3)

	if err.Context["streamId"] != "42" {
		t.Errorf("Context[streamId] = %v, want '42'", err.Context["streamId"])
	}
	if err.Context["viewers"] != 3 {
		t.Errorf("Context[viewers] = %v, want 3", err.Context["viewers"])
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		err        *AppError
		wantCode   ErrorCode
		wantStatus int
	}{
		{NewInvalidInputError("bad body"), ErrCodeInvalidInput, http.StatusBadRequest},
		{NewNotFoundError("stream"), ErrCodeNotFound, http.StatusNotFound},
		{NewUnauthorizedError("token expired"), ErrCodeUnauthorized, http.StatusUnauthorized},
		{NewRateLimitError(), ErrCodeRateLimit, http.StatusTooManyRequests},
		{NewInternalError("boom"), ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if tt.err.Code != tt.wantCode {
			t.Errorf("Code = %v, want %v", tt.err.Code, tt.wantCode)
		}
		if tt.err.HTTPStatus != tt.wantStatus {
			t.Errorf("HTTPStatus = %v, want %v", tt.err.HTTPStatus, tt.wantStatus)
		}
	}
}

func TestGetAppError(t *testing.T) {
	appErr := NewNotFoundError("stream")

	if got := GetAppError(appErr); got != appErr {
		t.Errorf("GetAppError(appErr) = %v, want %v", got, appErr)
	}

	wrapped := fmt.Errorf("handler: %w", appErr)
	if got := GetAppError(wrapped); got != appErr {
		t.Errorf("GetAppError(wrapped) = %v, want %v", got, appErr)
	}

	if got := GetAppError(errors.New("plain")); got != nil {
		t.Errorf("GetAppError(plain) = %v, want nil", got)
	}
	if got := GetAppError(nil); got != nil {
		t.Errorf("GetAppError(nil) = %v, want nil", got)
	}
}

func TestIsAppError(t *testing.T) {
	if !IsAppError(NewInternalError("boom")) {
		t.Errorf("IsAppError(AppError) should be true")
	}
	if IsAppError(errors.New("plain")) {
		t.Errorf("IsAppError(plain) should be false")
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
