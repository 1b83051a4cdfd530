package llm

import (
	"fmt"
	"sort"

	"github.com/kidtalk/tutorbench/internal/ports"
)

// Registry holds the model clients assembled for a benchmark run, keyed by
// display name. It is populated once during setup and read-only afterwards,
// so no locking is needed.
type Registry struct {
	clients map[string]ports.ModelClient
}

// NewRegistry creates an empty client registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]ports.ModelClient)}
}

// Register adds a client under its display name. Duplicate names are
// rejected so two configs cannot silently shadow each other in reports.
func (r *Registry) Register(client ports.ModelClient) error {
	name := client.Name()
	if name == "" {
		return fmt.Errorf("client name cannot be empty")
	}
	if _, exists := r.clients[name]; exists {
		return fmt.Errorf("client %q already registered", name)
	}
	r.clients[name] = client
	return nil
}

// Get returns the client registered under name.
func (r *Registry) Get(name string) (ports.ModelClient, bool) {
	client, ok := r.clients[name]
	return client, ok
}

// Names returns the registered display names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered clients.
func (r *Registry) Len() int { return len(r.clients) }
