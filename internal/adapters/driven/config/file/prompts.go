package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads reply prompt templates from user-editable files.
// Missing or unreadable files fall back to the built-in defaults.
//
// The directory and default files are created on the first Load, not in
// the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	defaults  map[string]string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// NewPromptStore creates a prompt store seeded with defaults.
// If promptDir is empty, defaults to ~/.helpdesk/prompts.
func NewPromptStore(promptDir string, defaults map[string]string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		defaults:  defaults,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the template for name.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := s.defaults[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		if def, ok := s.defaults[name]; ok {
			return def, nil
		}
		if err == nil {
			err = fmt.Errorf("empty prompt file")
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the cache so edited files are picked up.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range s.defaults {
		path := s.path(name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.promptDir, name+".tmpl")
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	names := make([]string, 0, len(s.defaults))
	for name := range s.defaults {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("# Helpdesk Prompts\n\n")
	b.WriteString("These templates drive the email reply agent.\n\n## Files\n\n")
	for _, name := range names {
		fmt.Fprintf(&b, "- `%s.tmpl`\n", name)
	}
	b.WriteString(`
## Customisation

Files use Go text/template syntax. Available fields:

- ` + "`{{.OrganizationName}}`" + `, ` + "`{{.Website}}`" + `, ` + "`{{.Slug}}`" + `
- ` + "`{{.ThreadHistory}}`" + ` and ` + "`{{.Email}}`" + `
- ` + "`{{.MaxSteps}}`" + ` (tool round budget)

Edits apply to the next reply after a restart, or immediately when the
server watches this directory. Delete a file to restore its default.
`)
	return os.WriteFile(path, []byte(b.String()), 0600)
}
