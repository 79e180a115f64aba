// Package ruleset holds an ordered list of named distance rules and reports
// which of them a coordinate satisfies.
//
// Within rules are prefiltered through an R-Tree of their bounding boxes and
// then confirmed with the exact predicate, so results always match a linear
// scan of the list.
package ruleset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/kass/geowithin/pkg/models"
	"github.com/kass/geowithin/pkg/rules"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyName     = errors.New("rule name is empty")
	ErrDuplicateName = errors.New("duplicate rule name")
)

// Entry is a named rule.
type Entry struct {
	Name string
	Rule rules.Rule
}

// Set is a thread-safe ordered collection of named rules
type Set struct {
	mu      sync.RWMutex
	entries []Entry
	names   map[string]struct{}
	index   *discIndex
	strict  bool
}

// Option configures a Set
type Option func(*Set)

// WithStrictValidation rejects rules whose threshold or reference point is out of range.
func WithStrictValidation(strict bool) Option {
	return func(s *Set) {
		s.strict = strict
	}
}

// New creates an empty rule set
func New(opts ...Option) *Set {
	s := &Set{
		names: make(map[string]struct{}),
		index: newDiscIndex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends a named rule. Names must be unique within the set.
func (s *Set) Add(name string, rule rules.Rule) error {
	if name == "" {
		return ErrEmptyName
	}
	if s.strict {
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("rule %q: %w", name, err)
		}
	} else if !rule.Kind.Valid() {
		return fmt.Errorf("rule %q: %w: %s", name, rules.ErrUnknownRule, rule.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.names[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	pos := len(s.entries)
	if rule.Kind == rules.KindWithin {
		indexed, err := s.index.insert(pos, rule.Threshold, rule.Reference)
		if err != nil {
			return fmt.Errorf("rule %q: index: %w", name, err)
		}
		if !indexed {
			zap.L().Debug("ruleset: within rule can never match",
				zap.String("rule", name), zap.Float64("threshold_km", rule.Threshold))
		}
	}

	s.entries = append(s.entries, Entry{Name: name, Rule: rule})
	s.names[name] = struct{}{}
	return nil
}

// Classify returns the names of all rules satisfied by subject, in insertion order.
func (s *Set) Classify(subject models.Coordinate) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []string
	s.each(subject, func(e Entry) bool {
		matched = append(matched, e.Name)
		return true
	})
	return matched
}

// First returns the name of the first rule satisfied by subject.
func (s *Set) First(subject models.Coordinate) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var name string
	s.each(subject, func(e Entry) bool {
		name = e.Name
		return false
	})
	return name, name != ""
}

// each calls fn for every matching entry until fn returns false.
func (s *Set) each(subject models.Coordinate, fn func(Entry) bool) {
	candidates, located := s.index.candidates(subject)

	for pos, e := range s.entries {
		if e.Rule.Kind == rules.KindWithin && located {
			if _, ok := candidates[pos]; !ok {
				continue
			}
		}
		if !e.Rule.Evaluate(subject) {
			continue
		}
		if !fn(e) {
			return
		}
	}
}

// Entries returns a copy of the rules in insertion order
func (s *Set) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of rules
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Indexed returns the number of Within rules held in the R-Tree
func (s *Set) Indexed() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.size()
}

// Clear removes all rules
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.names = make(map[string]struct{})
	s.index = newDiscIndex()
}

// document is the YAML layout of a rule file:
//
//	rules:
//	  - name: near-london
//	    rule_type: Within
//	    inputs:
//	      d: 50
//	      p: [51.5074, -0.1278]
type document struct {
	Rules []documentRule `yaml:"rules"`
}

type documentRule struct {
	Name     string `yaml:"name"`
	RuleType string `yaml:"rule_type"`
	Inputs   struct {
		D float64           `yaml:"d"`
		P models.Coordinate `yaml:"p"`
	} `yaml:"inputs"`
}

// Load decodes a YAML rule document into s.
func (s *Set) Load(r io.Reader) error {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return eris.Wrap(err, "ruleset: decode")
	}

	for i, dr := range doc.Rules {
		kind, err := rules.ParseKind(dr.RuleType)
		if err != nil {
			return eris.Wrapf(err, "ruleset: rule %d (%q)", i, dr.Name)
		}
		rule := rules.Rule{Kind: kind, Threshold: dr.Inputs.D, Reference: dr.Inputs.P}
		if err := s.Add(dr.Name, rule); err != nil {
			return eris.Wrapf(err, "ruleset: rule %d", i)
		}
	}

	zap.L().Debug("ruleset: loaded rules", zap.Int("count", len(doc.Rules)), zap.Int("indexed", s.Indexed()))
	return nil
}

// Save writes s as a YAML rule document that Load accepts.
func (s *Set) Save(w io.Writer) error {
	s.mu.RLock()
	doc := document{Rules: make([]documentRule, 0, len(s.entries))}
	for _, e := range s.entries {
		dr := documentRule{Name: e.Name, RuleType: e.Rule.Kind.String()}
		dr.Inputs.D = e.Rule.Threshold
		dr.Inputs.P = e.Rule.Reference
		doc.Rules = append(doc.Rules, dr)
	}
	s.mu.RUnlock()

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return eris.Wrap(err, "ruleset: encode")
	}
	return eris.Wrap(enc.Close(), "ruleset: encode")
}

// LoadFile reads a rule document from disk into a new Set.
func LoadFile(filename string, opts ...Option) (*Set, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, eris.Wrap(err, "ruleset: open")
	}
	defer file.Close()

	s := New(opts...)
	if err := s.Load(file); err != nil {
		return nil, eris.Wrapf(err, "ruleset: load %s", filename)
	}
	return s, nil
}
