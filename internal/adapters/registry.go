package adapters

import (
	"fmt"
	"sort"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
)

// Registry holds one adapter per supported tool.
type Registry struct {
	byName map[string]Adapter
}

// NewRegistry constructs all tool adapters over the given session.
func NewRegistry(session *database.Session) *Registry {
	all := []Adapter{
		NewLayoutAdapter(session),
		NewSccAdapter(session),
		NewLizardAdapter(session),
		NewSemgrepAdapter(session),
		NewRoslynAdapter(session),
		NewDevskimAdapter(session),
		NewSonarqubeAdapter(session),
		NewGitleaksAdapter(session),
		NewTrivyAdapter(session),
		NewGitSizerAdapter(session),
		NewGitFameAdapter(session),
		NewGitBlameAdapter(session),
		NewSymbolScannerAdapter(session),
		NewScancodeAdapter(session),
		NewPmdCpdAdapter(session),
		NewDotcoverAdapter(session),
		NewDependenseeAdapter(session),
	}
	byName := make(map[string]Adapter, len(all))
	for _, a := range all {
		byName[a.Name()] = a
	}
	return &Registry{byName: byName}
}

// Get returns the adapter for a tool name.
func (r *Registry) Get(tool string) (Adapter, error) {
	a, ok := r.byName[tool]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for tool %q", tool)
	}
	return a, nil
}

// Tools lists the registered tool names in sorted order.
func (r *Registry) Tools() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
