package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	err := New(CodeNotFound, "book %s not found", "b1")
	if CodeOf(err) != CodeNotFound {
		t.Errorf("CodeOf = %s, want %s", CodeOf(err), CodeNotFound)
	}
	if err.Error() != "book b1 not found" {
		t.Errorf("Error = %q", err.Error())
	}
}

func TestCodeOf_Wrapped(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodePersistence, cause, "could not load wallet")

	if CodeOf(err) != CodePersistence {
		t.Errorf("CodeOf = %s, want %s", CodeOf(err), CodePersistence)
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped cause lost")
	}

	// Codes survive another layer of fmt wrapping.
	outer := fmt.Errorf("handler: %w", err)
	if !Is(outer, CodePersistence) {
		t.Error("code lost through fmt.Errorf wrapping")
	}
}

func TestCodeOf_PlainError(t *testing.T) {
	if CodeOf(errors.New("boom")) != "" {
		t.Error("plain errors should carry no code")
	}
}
