package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "docpublisher.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		file, exists := err.Context().GetString("file")
		if !exists || file != "docpublisher.yaml" {
			t.Errorf("expected context file=docpublisher.yaml, got %v", file)
		}
	})

	t.Run("Error string includes cause", func(t *testing.T) {
		err := RemoteError("create page failed").WithCause(fmt.Errorf("boom")).Build()
		want := "[remote:error] create page failed: boom"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
		if err.Unwrap() == nil {
			t.Error("expected cause to be unwrappable")
		}
	})

	t.Run("Detection through fmt wrapping", func(t *testing.T) {
		base := ConflictError("title owned by another repository").Build()
		wrapped := fmt.Errorf("sync home: %w", base)

		if !IsClassified(wrapped) {
			t.Fatal("expected wrapped error to be classified")
		}
		if !HasCategory(wrapped, CategoryConflict) {
			t.Error("expected conflict category in chain")
		}
		if GetCategory(wrapped) != CategoryConflict {
			t.Errorf("GetCategory = %s", GetCategory(wrapped))
		}
	})

	t.Run("HasCategory walks nested classified errors", func(t *testing.T) {
		inner := AuthError("unauthorized").Build()
		outer := RemoteError("get child pages").WithCause(inner).Build()
		if !HasCategory(outer, CategoryAuth) {
			t.Error("expected nested auth category to be found")
		}
		if HasCategory(outer, CategoryConfig) {
			t.Error("did not expect config category")
		}
	})

	t.Run("Sentinel matching with errors.Is", func(t *testing.T) {
		sentinel := ConfigError("missing title for entry").Build()
		err := ConfigError("missing title for entry").WithContext("index", 3).Build()
		if !stderrors.Is(err, sentinel) {
			t.Error("expected errors.Is to match on category and message")
		}
	})

	t.Run("WithContext does not mutate original", func(t *testing.T) {
		orig := RemoteError("x").Build()
		next := orig.WithContext("id", "42")
		if _, ok := orig.Context().Get("id"); ok {
			t.Error("original context mutated")
		}
		if v, _ := next.Context().GetString("id"); v != "42" {
			t.Errorf("expected id=42, got %q", v)
		}
	})

	t.Run("Retry semantics", func(t *testing.T) {
		if !NetworkError("timeout").Build().CanRetry() {
			t.Error("network errors should be retryable")
		}
		if ConfigError("bad").Build().CanRetry() {
			t.Error("config errors should not be retryable")
		}
		if GetRetryStrategy(fmt.Errorf("plain")) != RetryNever {
			t.Error("plain errors default to RetryNever")
		}
	})
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("invalid input").Build(), expected: 2},
		{name: "auth", err: AuthError("unauthorized").Build(), expected: 5},
		{name: "conflict", err: ConflictError("foreign page").Build(), expected: 6},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "remote", err: RemoteError("503").Build(), expected: 8},
		{name: "wrapped remote", err: fmt.Errorf("level: %w", RemoteError("503").Build()), expected: 8},
		{name: "render", err: RenderError("bad markdown").Build(), expected: 11},
		{name: "unclassified", err: fmt.Errorf("unknown"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())

	conflict := ConflictError("page title belongs to a different repository").
		WithContext("title", "Docs").
		Build()

	if got := quiet.FormatError(conflict); got != "page title belongs to a different repository (title=Docs)" {
		t.Errorf("quiet FormatError = %q", got)
	}
	if got := verbose.FormatError(conflict); got != conflict.Error() {
		t.Errorf("verbose FormatError = %q", got)
	}

	remote := RemoteError("delete page failed").Build()
	if got := quiet.FormatError(remote); got != "remote: delete page failed" {
		t.Errorf("remote FormatError = %q", got)
	}
	if got := quiet.FormatError(fmt.Errorf("plain")); got != "Error: plain" {
		t.Errorf("plain FormatError = %q", got)
	}
}
