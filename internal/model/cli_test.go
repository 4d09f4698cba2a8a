package model

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"repoguardian/internal/pipeline"
)

func writeOllamaStub(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test uses a shell script ollama stub")
	}
	p := filepath.Join(t.TempDir(), "ollama")
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("WriteFile ollama stub: %v", err)
	}
	return p
}

func TestCLI_Complete(t *testing.T) {
	stub := writeOllamaStub(t, `[ "$1" = run ] || exit 9
[ "$2" = tiny ] || exit 9
printf 'echo: '
cat
printf '\n\n'
`)
	c := NewCLI(Config{Binary: stub, Model: "tiny"})
	out, err := c.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "echo: hello" {
		t.Fatalf("got %q", out)
	}
}

func TestCLI_ErrorKinds(t *testing.T) {
	t.Run("missing binary", func(t *testing.T) {
		c := NewCLI(Config{Binary: filepath.Join(t.TempDir(), "ollama")})
		_, err := c.Complete(context.Background(), "p")
		if pipeline.KindOf(err) != pipeline.KindBackendUnavailable {
			t.Fatalf("expected BackendUnavailable, got %v", err)
		}
	})

	t.Run("non-zero exit", func(t *testing.T) {
		c := NewCLI(Config{Binary: writeOllamaStub(t, "cat >/dev/null\necho 'Error: could not connect to ollama app' >&2\nexit 1\n")})
		_, err := c.Complete(context.Background(), "p")
		if pipeline.KindOf(err) != pipeline.KindBackendUnavailable {
			t.Fatalf("expected BackendUnavailable, got %v", err)
		}
		if err.Error() != "ollama error: Error: could not connect to ollama app" {
			t.Fatalf("unexpected message %q", err.Error())
		}
	})

	t.Run("timeout", func(t *testing.T) {
		c := NewCLI(Config{Binary: writeOllamaStub(t, "exec sleep 5\n"), Timeout: 50 * time.Millisecond})
		_, err := c.Complete(context.Background(), "p")
		if pipeline.KindOf(err) != pipeline.KindTimeout {
			t.Fatalf("expected TimeoutError, got %v", err)
		}
		if err.Error() != "ollama timed out after 50ms" {
			t.Fatalf("unexpected message %q", err.Error())
		}
	})

	t.Run("caller deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		c := NewCLI(Config{Binary: writeOllamaStub(t, "exec sleep 5\n"), Timeout: 5 * time.Second})
		_, err := c.Complete(ctx, "p")
		if pipeline.KindOf(err) != pipeline.KindTimeout {
			t.Fatalf("expected TimeoutError, got %v", err)
		}
		if err.Error() != "analysis deadline reached while waiting for ollama" {
			t.Fatalf("caller deadline reported as %q", err.Error())
		}
	})
}
