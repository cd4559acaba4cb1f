package repl

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/yndnr/payauth-go/internal/telemetry/logger"
)

type recorder struct {
	calls [][]string
	err   error
}

func (r *recorder) exec(_ context.Context, args []string) error {
	r.calls = append(r.calls, args)
	return r.err
}

func newTestREPL(input string, rec *recorder, opts ...Option) (*REPL, *bytes.Buffer) {
	var out bytes.Buffer
	opts = append([]Option{
		WithIO(strings.NewReader(input), &out),
		WithLogger(logger.Discard()),
	}, opts...)
	return New(rec.exec, opts...), &out
}

func TestREPL_DispatchesLines(t *testing.T) {
	rec := &recorder{}
	r, out := newTestREPL("auth whoami\n\nusers search \"ana souza\"\nexit\nauth logout\n", rec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := [][]string{{"auth", "whoami"}, {"users", "search", "ana souza"}}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("calls = %q, want %q", rec.calls, want)
	}
	if strings.Count(out.String(), "payauth> ") != 4 {
		t.Errorf("prompt count wrong: %q", out.String())
	}
}

func TestREPL_ErrorsDoNotStopLoop(t *testing.T) {
	rec := &recorder{err: errors.New("Invalid credentials")}
	r, out := newTestREPL("auth login\nauth whoami\n", rec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rec.calls) != 2 {
		t.Errorf("calls = %d, want 2", len(rec.calls))
	}
	if strings.Count(out.String(), "error: Invalid credentials") != 2 {
		t.Errorf("output = %q", out.String())
	}
}

func TestREPL_LastLineWithoutNewline(t *testing.T) {
	rec := &recorder{}
	r, _ := newTestREPL("version", rec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rec.calls) != 1 || rec.calls[0][0] != "version" {
		t.Errorf("calls = %q", rec.calls)
	}
}

func TestREPL_Builtins(t *testing.T) {
	rec := &recorder{}
	r, out := newTestREPL("auth whoami\nhistory\ncomplete us\nquit\n", rec,
		WithCompleter(NewCompleter("users list", "users search", "auth login")),
	)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rec.calls) != 1 {
		t.Errorf("builtins should not reach the executor, calls = %q", rec.calls)
	}
	s := out.String()
	if !strings.Contains(s, "   1  auth whoami") {
		t.Errorf("history not printed: %q", s)
	}
	if !strings.Contains(s, "users list\nusers search\n") {
		t.Errorf("completions not printed: %q", s)
	}
}

func TestREPL_CustomPrompt(t *testing.T) {
	rec := &recorder{}
	r, out := newTestREPL("exit\n", rec, WithPrompt(func() string { return "ana@payauth> " }))

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "ana@payauth> ") {
		t.Errorf("output = %q", out.String())
	}
}

func TestREPL_CancelledContext(t *testing.T) {
	rec := &recorder{}
	r, _ := newTestREPL("auth whoami\n", rec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("calls = %q, want none", rec.calls)
	}
}

func TestREPL_PersistsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	rec := &recorder{}
	r, _ := newTestREPL("auth login --email a@b.c --password hunter22\n", rec, WithHistory(NewHistory(path)))

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	reloaded := NewHistory(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := reloaded.Get(0); got != "auth login --email a@b.c --password ***" {
		t.Errorf("persisted = %q", got)
	}
	if rec.calls[0][5] != "hunter22" {
		t.Error("executor should receive the real password")
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{"auth login", []string{"auth", "login"}, false},
		{"  users   list  ", []string{"users", "list"}, false},
		{`users search "ana souza"`, []string{"users", "search", "ana souza"}, false},
		{`x 'it''s'`, []string{"x", "its"}, false},
		{`x "a \"b\""`, []string{"x", `a "b"`}, false},
		{`x 'a\b'`, []string{"x", `a\b`}, false},
		{`x a\ b`, []string{"x", "a b"}, false},
		{`x ""`, []string{"x", ""}, false},
		{`x "open`, nil, true},
		{`x \`, nil, true},
	}

	for _, tt := range tests {
		got, err := SplitArgs(tt.line)
		if (err != nil) != tt.wantErr {
			t.Errorf("SplitArgs(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitArgs(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}
