// Package taxonomy holds the versioned rule tables that map surface terms to
// normalized clinical concepts and codes.
package taxonomy

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/cliniprov/internal/model"
)

// ErrInvalidRule is returned when a taxonomy table fails validation
var ErrInvalidRule = errors.New("invalid taxonomy rule")

// Rule maps a set of trigger phrases to one normalized term
type Rule struct {
	NormalizedTerm string   `yaml:"term" json:"term"`
	Triggers       []string `yaml:"triggers" json:"triggers"`
	Code           string   `yaml:"code,omitempty" json:"code,omitempty"`
	CodeSystem     string   `yaml:"code_system,omitempty" json:"code_system,omitempty"`
	RiskWeight     float64  `yaml:"risk_weight,omitempty" json:"risk_weight,omitempty"`
}

// Table is the rule list for one category
type Table struct {
	Category model.Category `yaml:"category" json:"category"`
	Rules    []Rule         `yaml:"rules" json:"rules"`
}

// Taxonomy is an immutable set of rule tables. There are no setters; every
// accessor returns a copy.
type Taxonomy struct {
	version string
	digest  string
	tables  map[model.Category][]Rule
}

// New validates the tables and builds a taxonomy from a deep copy of them
func New(version string, tables []Table) (*Taxonomy, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return nil, fmt.Errorf("%w: version is required", ErrInvalidRule)
	}

	t := &Taxonomy{
		version: version,
		tables:  make(map[model.Category][]Rule, len(model.Categories)),
	}
	for _, cat := range model.Categories {
		t.tables[cat] = []Rule{}
	}

	for _, table := range tables {
		if !table.Category.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidRule, table.Category)
		}
		for i, r := range table.Rules {
			if err := validateRule(table.Category, r); err != nil {
				return nil, fmt.Errorf("%s rule %d: %w", table.Category, i, err)
			}
			t.tables[table.Category] = append(t.tables[table.Category], copyRule(r))
		}
	}
	t.digest = digestTables(t.tables)

	return t, nil
}

// digestTables hashes every rule field in category order. Strings are
// quoted so field boundaries cannot collide.
func digestTables(tables map[model.Category][]Rule) string {
	h := sha256.New()
	for _, cat := range model.Categories {
		fmt.Fprintf(h, "%q %d\n", cat, len(tables[cat]))
		for _, r := range tables[cat] {
			fmt.Fprintf(h, "%q %q %q %g %d", r.NormalizedTerm, r.Code, r.CodeSystem, r.RiskWeight, len(r.Triggers))
			for _, trig := range r.Triggers {
				fmt.Fprintf(h, " %q", trig)
			}
			fmt.Fprintln(h)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func validateRule(cat model.Category, r Rule) error {
	if strings.TrimSpace(r.NormalizedTerm) == "" {
		return fmt.Errorf("%w: normalized term is required", ErrInvalidRule)
	}
	if len(r.Triggers) == 0 {
		return fmt.Errorf("%w: %q has no triggers", ErrInvalidRule, r.NormalizedTerm)
	}
	for _, trig := range r.Triggers {
		if strings.TrimSpace(trig) == "" {
			return fmt.Errorf("%w: %q has an empty trigger", ErrInvalidRule, r.NormalizedTerm)
		}
	}
	if r.RiskWeight < 0 {
		return fmt.Errorf("%w: %q has negative risk weight", ErrInvalidRule, r.NormalizedTerm)
	}
	if r.Code != "" && r.CodeSystem == "" {
		return fmt.Errorf("%w: %q has a code without a code system", ErrInvalidRule, r.NormalizedTerm)
	}
	switch r.CodeSystem {
	case "":
	case model.CodeSystemICD10:
		if cat != model.CategoryDiagnosis {
			return fmt.Errorf("%w: ICD-10 codes are only valid on diagnoses (%q)", ErrInvalidRule, r.NormalizedTerm)
		}
	case model.CodeSystemMBS:
		if cat != model.CategoryProcedure {
			return fmt.Errorf("%w: MBS items are only valid on procedures (%q)", ErrInvalidRule, r.NormalizedTerm)
		}
	default:
		return fmt.Errorf("%w: unknown code system %q", ErrInvalidRule, r.CodeSystem)
	}
	return nil
}

func copyRule(r Rule) Rule {
	r.Triggers = append([]string(nil), r.Triggers...)
	return r
}

// Version returns the taxonomy version string
func (t *Taxonomy) Version() string {
	return t.version
}

// Digest identifies the rule content. Editing any rule changes it even when
// the version string stays the same.
func (t *Taxonomy) Digest() string {
	return t.digest
}

// Rules returns a copy of the rules for one category
func (t *Taxonomy) Rules(cat model.Category) []Rule {
	src := t.tables[cat]
	out := make([]Rule, len(src))
	for i, r := range src {
		out[i] = copyRule(r)
	}
	return out
}

// Tables returns a copy of every table in category order
func (t *Taxonomy) Tables() []Table {
	out := make([]Table, 0, len(model.Categories))
	for _, cat := range model.Categories {
		out = append(out, Table{Category: cat, Rules: t.Rules(cat)})
	}
	return out
}

// Lookup finds the rule for a normalized term within a category
func (t *Taxonomy) Lookup(cat model.Category, term string) (Rule, bool) {
	for _, r := range t.tables[cat] {
		if strings.EqualFold(r.NormalizedTerm, term) {
			return copyRule(r), true
		}
	}
	return Rule{}, false
}

// RiskWeight returns the risk weight of a normalized term, zero when unknown
func (t *Taxonomy) RiskWeight(cat model.Category, term string) float64 {
	r, ok := t.Lookup(cat, term)
	if !ok {
		return 0
	}
	return r.RiskWeight
}

// RuleCount returns the total number of rules across all tables
func (t *Taxonomy) RuleCount() int {
	n := 0
	for _, rules := range t.tables {
		n += len(rules)
	}
	return n
}
