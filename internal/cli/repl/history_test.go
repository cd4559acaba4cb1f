package repl

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestHistory_AddAndGet(t *testing.T) {
	h := NewHistory("")
	h.Add("auth whoami")
	h.Add("users list")
	h.Add("users list")

	if got := h.Get(0); got != "users list" {
		t.Errorf("Get(0) = %q", got)
	}
	if got := h.Get(1); got != "auth whoami" {
		t.Errorf("Get(1) = %q", got)
	}
	if got := h.Get(2); got != "" {
		t.Errorf("Get(2) = %q, consecutive duplicates should collapse", got)
	}
	if got := h.Get(-1); got != "" {
		t.Errorf("Get(-1) = %q", got)
	}
}

func TestHistory_MaxSize(t *testing.T) {
	h := NewHistory("")
	h.maxSize = 3
	for i := 0; i < 5; i++ {
		h.Add("cmd " + strconv.Itoa(i))
	}

	entries := h.Entries()
	if len(entries) != 3 || entries[0] != "cmd 2" {
		t.Errorf("Entries() = %q", entries)
	}
}

func TestHistory_MasksSecrets(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"auth login --email a@b.c --password s3cret", "auth login --email a@b.c --password ***"},
		{"password reset --token t --new-password=abc123 --confirm-password abc123",
			"password reset --token t --new-password=*** --confirm-password ***"},
		{"auth login -p s3cret", "auth login -p ***"},
		{"auth login --password", "auth login --password"},
		{"users  search   ana", "users  search   ana"},
	}

	for _, tt := range tests {
		h := NewHistory("")
		h.Add(tt.in)
		if got := h.Get(0); got != tt.want {
			t.Errorf("Add(%q) recorded %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHistory_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "history")

	h := NewHistory(path)
	h.Add("auth whoami")
	h.Add("address lookup 01310930")
	if err := h.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("mode = %o, want 600", perm)
	}

	loaded := NewHistory(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := loaded.Entries(); len(got) != 2 || got[1] != "address lookup 01310930" {
		t.Errorf("Entries() = %q", got)
	}
}

func TestHistory_LoadMissing(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "absent"))
	if err := h.Load(); err != nil {
		t.Errorf("Load() error = %v", err)
	}
	if err := NewHistory("").Save(); err != nil {
		t.Errorf("in-memory Save() error = %v", err)
	}
}
