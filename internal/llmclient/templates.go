package llmclient

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TemplateStore loads named prompt templates from a directory at startup
// and substitutes {{name}} placeholders by literal replacement. Prompts are
// data, not code: core logic never holds a prompt string directly.
type TemplateStore struct {
	dir       string
	mu        sync.RWMutex
	templates map[string]string
}

// NewTemplateStore loads every *.tmpl file under dir, keyed by basename
// without extension (e.g. "breakdown.tmpl" -> "breakdown").
func NewTemplateStore(dir string) (*TemplateStore, error) {
	ts := &TemplateStore{dir: dir, templates: make(map[string]string)}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("llmclient: reading template dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tmpl") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("llmclient: reading template %s: %w", entry.Name(), err)
		}
		name := strings.TrimSuffix(entry.Name(), ".tmpl")
		ts.templates[name] = string(data)
	}
	return ts, nil
}

// Render substitutes every {{key}} placeholder in the named template with
// the literal string value from vars. Unknown placeholders are left as-is.
func (ts *TemplateStore) Render(name string, vars map[string]string) (string, error) {
	ts.mu.RLock()
	tmpl, ok := ts.templates[name]
	ts.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("llmclient: unknown prompt template %q", name)
	}
	out := tmpl
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return out, nil
}
