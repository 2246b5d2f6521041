package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeToHTTPStatus(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{CodeValidationFailed, http.StatusBadRequest},
		{CodeExtractionFailed, http.StatusUnprocessableEntity},
		{CodeGenerationFailed, http.StatusBadGateway},
		{CodeSessionBusy, http.StatusConflict},
		{CodeSessionNotFound, http.StatusNotFound},
		{CodeUploadTooLarge, http.StatusRequestEntityTooLarge},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := New(tc.code, "x").HTTPStatus; got != tc.want {
			t.Errorf("code %s: status = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeSessionBusy, "busy"))
	if !stderrors.Is(err, ErrSessionBusy) {
		t.Fatal("expected errors.Is to match by code")
	}
	if stderrors.Is(err, ErrSessionNotFound) {
		t.Fatal("different codes must not match")
	}
}

func TestExtractionErrorHidesCause(t *testing.T) {
	cause := stderrors.New("zip: not a valid zip file")
	err := NewExtractionError(cause)
	if err.Message != MsgExtractionFailed {
		t.Errorf("message = %q", err.Message)
	}
	if !stderrors.Is(err, cause) {
		t.Error("cause should stay on the chain for logging")
	}
}

func TestGenerationErrorDefaultsMessage(t *testing.T) {
	err := NewGenerationError(stderrors.New("boom"), "", true)
	if err.Message != MsgGenerationFailed || !err.Retryable {
		t.Errorf("unexpected error: %+v", err)
	}
	custom := NewGenerationError(nil, "quota exceeded", false)
	if custom.Message != "quota exceeded" {
		t.Errorf("message = %q", custom.Message)
	}
}

func TestAsAppErrorWrapsForeignErrors(t *testing.T) {
	appErr := AsAppError(stderrors.New("plain"))
	if appErr.Code != CodeUnknown {
		t.Errorf("code = %s", appErr.Code)
	}
	if !HasCode(fmt.Errorf("w: %w", NewValidationError("m")), CodeValidationFailed) {
		t.Error("HasCode should see wrapped validation error")
	}
}
