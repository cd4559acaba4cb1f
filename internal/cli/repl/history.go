package repl

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultHistorySize is the number of lines kept.
const DefaultHistorySize = 1000

// secretFlags have their value masked before a line is recorded.
var secretFlags = []string{"--password", "--new-password", "--confirm-password", "-p"}

// History manages command history for the REPL. A History with an empty
// file path lives in memory only.
type History struct {
	entries []string
	maxSize int
	file    string
}

// NewHistory creates a History persisted at file.
func NewHistory(file string) *History {
	return &History{
		entries: make([]string, 0),
		maxSize: DefaultHistorySize,
		file:    file,
	}
}

// Add records a line with secret flag values masked. A line equal to
// the previous one is not repeated.
func (h *History) Add(line string) {
	line = maskSecrets(line)
	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		return
	}
	h.entries = append(h.entries, line)
	h.trim()
}

// Get returns the history entry at index (0 = most recent).
func (h *History) Get(index int) string {
	if index < 0 || index >= len(h.entries) {
		return ""
	}
	return h.entries[len(h.entries)-1-index]
}

// Entries returns a copy of the history, oldest first.
func (h *History) Entries() []string {
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Load reads history from file. A missing file is not an error.
func (h *History) Load() error {
	if h.file == "" {
		return nil
	}

	file, err := os.Open(h.file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			h.entries = append(h.entries, line)
		}
	}
	h.trim()
	return scanner.Err()
}

// Save writes history to file, readable only by the owner.
func (h *History) Save() error {
	if h.file == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(h.file), 0o700); err != nil {
		return err
	}

	var b strings.Builder
	for _, entry := range h.entries {
		b.WriteString(entry)
		b.WriteByte('\n')
	}
	return os.WriteFile(h.file, []byte(b.String()), 0o600)
}

func (h *History) trim() {
	if over := len(h.entries) - h.maxSize; over > 0 {
		h.entries = h.entries[over:]
	}
}

// maskSecrets replaces the values of secret flags, in both "--flag value"
// and "--flag=value" forms, with ***.
func maskSecrets(line string) string {
	words := strings.Fields(line)
	masked := false
	for i := 0; i < len(words); i++ {
		for _, flag := range secretFlags {
			switch {
			case words[i] == flag && i+1 < len(words):
				words[i+1] = "***"
				masked = true
				i++
			case strings.HasPrefix(words[i], flag+"="):
				words[i] = flag + "=***"
				masked = true
			default:
				continue
			}
			break
		}
	}
	if !masked {
		return line
	}
	return strings.Join(words, " ")
}
