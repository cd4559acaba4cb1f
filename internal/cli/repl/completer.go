package repl

import (
	"sort"
	"strings"
)

// Completer suggests command lines for a prefix.
type Completer struct {
	commands []string
}

// Builtins are the shell's own commands.
var Builtins = []string{"complete", "exit", "history", "quit"}

// NewCompleter creates a Completer over the builtins plus commands.
func NewCompleter(commands ...string) *Completer {
	seen := make(map[string]bool)
	var all []string
	for _, c := range append(append([]string{}, Builtins...), commands...) {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		all = append(all, c)
	}
	sort.Strings(all)
	return &Completer{commands: all}
}

// Complete returns the commands starting with prefix, in sorted order.
// Leading whitespace and repeated spaces in prefix are ignored.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.Join(strings.Fields(prefix), " ")
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
