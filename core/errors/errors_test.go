package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with ID",
			err:      &NotFoundError{Resource: "document", ID: "en/1.xml.gz"},
			wantMsg:  "document not found: en/1.xml.gz",
			wantBase: ErrNotFound,
		},
		{
			name:     "without ID",
			err:      &NotFoundError{Resource: "archive member"},
			wantMsg:  "archive member not found",
			wantBase: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, tt.wantBase) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.wantBase)
			}
			if !IsNotFound(fmt.Errorf("wrapped: %w", tt.err)) {
				t.Error("IsNotFound should see through wrapping")
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		err := &NotFoundError{Resource: "document", ID: "x", Err: fs.ErrNotExist}
		if !errors.Is(err, fs.ErrNotExist) {
			t.Error("NotFoundError should unwrap to its cause")
		}
		if !IsNotFound(fmt.Errorf("open sentences: %w", err)) {
			t.Error("NotFoundError with a cause should still match ErrNotFound")
		}
	})
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ValidationError
		wantMsg string
	}{
		{
			name:    "with field",
			err:     NewValidation("write", "a,b", "multiple output files are only allowed in moses mode"),
			wantMsg: "invalid write: multiple output files are only allowed in moses mode",
		},
		{
			name:    "without field",
			err:     &ValidationError{Message: "source and target are the same language"},
			wantMsg: "invalid configuration: source and target are the same language",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Error("ValidationError should unwrap to ErrInvalidInput")
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		cause := errors.New("path traversal detected")
		err := &ValidationError{Field: "member", Message: cause.Error(), Err: cause}
		if !errors.Is(err, cause) || !errors.Is(err, ErrInvalidInput) {
			t.Error("ValidationError should unwrap to its cause and ErrInvalidInput")
		}
	})
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ParseError
		wantMsg string
	}{
		{
			name:    "minimal",
			err:     NewParse("xml", "", "unexpected EOF"),
			wantMsg: "failed to parse xml: unexpected EOF",
		},
		{
			name:    "with path and line",
			err:     &ParseError{Format: "xml", Path: "en-fr.xml", Line: 12, Message: "element <link> closed by </linkGrp>"},
			wantMsg: "failed to parse xml at en-fr.xml line 12: element <link> closed by </linkGrp>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Error("ParseError should unwrap to ErrInvalidInput")
			}
			if !IsParse(Wrap(tt.err, "alignment")) {
				t.Error("IsParse should see through wrapping")
			}
		})
	}
}

func TestClassificationError(t *testing.T) {
	cause := fmt.Errorf("model not loaded")
	err := &ClassificationError{Backend: "whatlanggo", Err: cause}

	if got, want := err.Error(), "language identification with whatlanggo failed: model not loaded"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrClassification) {
		t.Error("should match ErrClassification")
	}
	if !errors.Is(err, cause) {
		t.Error("should match the backend cause")
	}
}

func TestIOError(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	err := NewIO("create", "/tmp/out.tmx", cause)
	if got, want := err.Error(), "failed to create /tmp/out.tmx: permission denied"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("IOError should unwrap to its cause")
	}

	noPath := &IOError{Operation: "flush", Err: cause}
	if got, want := noPath.Error(), "failed to flush: permission denied"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestUnsupportedError(t *testing.T) {
	err := NewUnsupported("write mode", "xliff")
	if got, want := err.Error(), "unsupported write mode: xliff"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrUnsupported) {
		t.Error("should unwrap to ErrUnsupported")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, "context %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}

	base := NewNotFound("document", "a.xml")
	wrapped := Wrapf(base, "pair %d", 3)
	if got, want := wrapped.Error(), "pair 3: document not found: a.xml"; got != want {
		t.Errorf("Wrapf() = %q, want %q", got, want)
	}
	var nf *NotFoundError
	if !As(wrapped, &nf) || nf.ID != "a.xml" {
		t.Error("As should recover the NotFoundError")
	}
	if !Is(wrapped, ErrNotFound) {
		t.Error("Is should match ErrNotFound")
	}
}
