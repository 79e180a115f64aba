// Package rules defines the geodesic distance rules that can be attached to a
// two-dimensional coordinate answer.
//
// The set of rule kinds is closed: each Kind maps to exactly one predicate in
// package geodist and is resolved with a switch, never by name lookup at
// evaluation time.
package rules

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kass/geowithin/pkg/geodist"
	"github.com/kass/geowithin/pkg/models"
)

// Kind identifies a rule variant.
type Kind int

const (
	KindWithin Kind = iota + 1
	KindNotWithin
)

var (
	ErrUnknownRule      = errors.New("unknown rule type")
	ErrInvalidThreshold = errors.New("threshold must be a finite non-negative distance")
)

// Description templates. {{d|Real}} is the threshold, {{p|CoordTwoDim}} the reference point.
const (
	withinTemplate    = "is within {{d|Real}} km of {{p|CoordTwoDim}}"
	notWithinTemplate = "is not within {{d|Real}} km of {{p|CoordTwoDim}}"
)

// String returns the rule identifier used in rule documents.
func (k Kind) String() string {
	switch k {
	case KindWithin:
		return "Within"
	case KindNotWithin:
		return "NotWithin"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ParseKind resolves a rule identifier.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds() {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRule, name)
}

// Valid reports whether k is one of the known variants.
func (k Kind) Valid() bool {
	return k == KindWithin || k == KindNotWithin
}

// Kinds lists every rule variant.
func Kinds() []Kind {
	return []Kind{KindWithin, KindNotWithin}
}

// Template returns the parameterised description of the rule kind.
func (k Kind) Template() string {
	switch k {
	case KindWithin:
		return withinTemplate
	case KindNotWithin:
		return notWithinTemplate
	default:
		return ""
	}
}

// Rule is a single distance rule: a threshold in kilometers around a reference point.
type Rule struct {
	Kind      Kind
	Threshold float64
	Reference models.Coordinate
}

// Within builds a KindWithin rule.
func Within(thresholdKm float64, reference models.Coordinate) Rule {
	return Rule{Kind: KindWithin, Threshold: thresholdKm, Reference: reference}
}

// NotWithin builds a KindNotWithin rule.
func NotWithin(thresholdKm float64, reference models.Coordinate) Rule {
	return Rule{Kind: KindNotWithin, Threshold: thresholdKm, Reference: reference}
}

// Evaluate applies the rule to subject. A rule of unknown kind never matches.
func (r Rule) Evaluate(subject models.Coordinate) bool {
	switch r.Kind {
	case KindWithin:
		return geodist.Within(r.Threshold, r.Reference, subject)
	case KindNotWithin:
		return geodist.NotWithin(r.Threshold, r.Reference, subject)
	default:
		return false
	}
}

// Validate checks the kind, threshold and reference point.
func (r Rule) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownRule, r.Kind)
	}
	if math.IsNaN(r.Threshold) || math.IsInf(r.Threshold, 0) || r.Threshold < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, r.Threshold)
	}
	if err := r.Reference.Validate(); err != nil {
		return fmt.Errorf("reference: %w", err)
	}
	return nil
}

// Describe renders the rule's template with its parameters,
// e.g. "is within 20 km of (51.5074, -0.1278)".
func (r Rule) Describe() string {
	tmpl := r.Kind.Template()
	if tmpl == "" {
		return r.Kind.String()
	}
	return strings.NewReplacer(
		"{{d|Real}}", strconv.FormatFloat(r.Threshold, 'g', -1, 64),
		"{{p|CoordTwoDim}}", r.Reference.String(),
	).Replace(tmpl)
}

func (r Rule) String() string {
	return r.Kind.String() + " " + r.Describe()
}
