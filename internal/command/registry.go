package command

import (
	"sort"
	"strings"
	"sync"
)

// Registry holds the command table. Lookup is case-insensitive.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds a command, replacing any previous one with the same name.
func (r *Registry) Register(cmd Command) {
	r.mu.Lock()
	r.commands[strings.ToLower(cmd.Name())] = cmd
	r.mu.Unlock()
}

// Get looks a command up by name.
func (r *Registry) Get(name string) (Command, bool) {
	r.mu.RLock()
	cmd, ok := r.commands[strings.ToLower(name)]
	r.mu.RUnlock()
	return cmd, ok
}

// Has reports whether a command is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// All returns every registered command sorted by name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	out := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		out = append(out, cmd)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
