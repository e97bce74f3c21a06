package data

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	json "github.com/json-iterator/go"
)

const (
	credentialsFile = "login.credentials.json"
	casesFile       = "login.cases.json"
)

// ErrNotFound is returned for an unknown credential alias or case id.
var ErrNotFound = errors.New("not found")

//go:embed sets/*.json
var defaultSets embed.FS

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Outcome     Outcome
	TagsInclude []string
}

// Provider serves credentials by alias and cases by id. It is read-only
// after construction and safe for concurrent use.
type Provider struct {
	creds map[string]Credentials
	cases []Case
}

// Default returns a provider over the data sets compiled into the binary.
func Default() (*Provider, error) {
	sets, err := fs.Sub(defaultSets, "sets")
	if err != nil {
		return nil, err
	}
	return Load(sets)
}

// FromDir loads the data sets from dir, or the embedded sets when dir is empty.
func FromDir(dir string) (*Provider, error) {
	if dir == "" {
		return Default()
	}
	return Load(os.DirFS(dir))
}

// Load reads login.credentials.json and login.cases.json from fsys.
func Load(fsys fs.FS) (*Provider, error) {
	p := &Provider{}
	if err := readJSON(fsys, credentialsFile, &p.creds); err != nil {
		return nil, err
	}
	if err := readJSON(fsys, casesFile, &p.cases); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("invalid data set: %w", err)
	}
	return p, nil
}

func readJSON(fsys fs.FS, name string, v interface{}) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

func (p *Provider) validate() error {
	seen := make(map[string]bool, len(p.cases))
	for i, c := range p.cases {
		if c.ID == "" {
			return fmt.Errorf("case %d has no id", i)
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate case id %q", c.ID)
		}
		seen[c.ID] = true
		if _, err := ParseOutcome(string(c.Outcome)); err != nil {
			return fmt.Errorf("case %q: %w", c.ID, err)
		}
	}
	return nil
}

// Creds returns the credentials stored under alias.
func (p *Provider) Creds(alias string) (Credentials, error) {
	c, ok := p.creds[alias]
	if !ok {
		return Credentials{}, fmt.Errorf("credentials alias %q: %w", alias, ErrNotFound)
	}
	return c, nil
}

// Case returns the case with id.
func (p *Provider) Case(id string) (Case, error) {
	for _, c := range p.cases {
		if c.ID == id {
			return c, nil
		}
	}
	return Case{}, fmt.Errorf("case %q: %w", id, ErrNotFound)
}

// List returns the cases matching f, in file order.
func (p *Provider) List(f Filter) []Case {
	out := make([]Case, 0, len(p.cases))
	for _, c := range p.cases {
		if f.Outcome != "" && c.Outcome != f.Outcome {
			continue
		}
		if len(f.TagsInclude) > 0 && !c.HasAnyTag(f.TagsInclude) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// All returns a copy of every case.
func (p *Provider) All() []Case {
	return append([]Case(nil), p.cases...)
}
