package validation

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"centrifuge/internal/oracle"
	"centrifuge/internal/release"
)

// Oracle resolves declared names to canonical ones.
type Oracle interface {
	Resolve(ctx context.Context, artist, title string) oracle.Resolution
}

// Violation is one failed check.
type Violation struct {
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Fixable  bool     `json:"fixable"`
	Message  string   `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Code, v.Message)
}

// Result lists the violations of one release in rule order.
type Result struct {
	Violations []Violation
}

// Valid reports whether no rule fired.
func (r Result) Valid() bool { return len(r.Violations) == 0 }

// Has reports whether code is present.
func (r Result) Has(code Code) bool {
	return slices.ContainsFunc(r.Violations, func(v Violation) bool { return v.Code == code })
}

// HasFatal reports whether any fatal violation is present.
func (r Result) HasFatal() bool {
	return slices.ContainsFunc(r.Violations, func(v Violation) bool { return v.Severity == SeverityFatal })
}

// Codes returns the codes in order.
func (r Result) Codes() []Code {
	out := make([]Code, len(r.Violations))
	for i, v := range r.Violations {
		out[i] = v.Code
	}
	return out
}

// Rule is one independent check.
type Rule interface {
	Code() Code
	Evaluate(ctx context.Context, rel *release.Release, o Oracle) (Violation, bool)
}

// check adapts a message-producing function to Rule.
type check struct {
	def  Definition
	eval func(ctx context.Context, rel *release.Release, o Oracle) (string, bool)
}

func (c check) Code() Code { return c.def.Code }

func (c check) Evaluate(ctx context.Context, rel *release.Release, o Oracle) (Violation, bool) {
	msg, bad := c.eval(ctx, rel, o)
	if !bad {
		return Violation{}, false
	}
	return Violation{Code: c.def.Code, Severity: c.def.Severity, Fixable: c.def.Fixable, Message: msg}, true
}

func newCheck(code Code, eval func(ctx context.Context, rel *release.Release, o Oracle) (string, bool)) Rule {
	def, ok := Lookup(code)
	if !ok {
		panic("validation: unknown code " + string(code))
	}
	return check{def: def, eval: eval}
}

// Options configures the rule battery.
type Options struct {
	ForbiddenCommentSubstrings []string
	FullCodecNames             bool
}

// Registry holds the rules in evaluation order.
type Registry struct {
	rules []Rule
}

// NewRegistry builds the full battery in catalog order.
func NewRegistry(opts Options) *Registry {
	var rules []Rule
	rules = append(rules, unreadableRule())
	rules = append(rules, hygieneRules()...)
	rules = append(rules, oracleRules()...)
	rules = append(rules, structureRules()...)
	rules = append(rules, encodingRules()...)
	rules = append(rules, namingRules(opts.FullCodecNames)...)
	rules = append(rules, commentRule(opts.ForbiddenCommentSubstrings))
	return NewRegistryWith(rules...)
}

// NewRegistryWith orders arbitrary rules by catalog position.
func NewRegistryWith(rules ...Rule) *Registry {
	position := make(map[Code]int, len(catalog))
	for i, def := range catalog {
		position[def.Code] = i
	}
	sorted := slices.Clone(rules)
	slices.SortStableFunc(sorted, func(a, b Rule) int {
		return position[a.Code()] - position[b.Code()]
	})
	return &Registry{rules: sorted}
}

// Rules returns the rules in evaluation order.
func (r *Registry) Rules() []Rule {
	return slices.Clone(r.rules)
}

// Validate runs every rule against rel. o may be nil, in which case the
// oracle rules are skipped.
func (r *Registry) Validate(ctx context.Context, rel *release.Release, o Oracle) Result {
	if o != nil {
		o = &memoOracle{inner: o}
	}
	var result Result
	for _, rule := range r.rules {
		if v, bad := rule.Evaluate(ctx, rel, o); bad {
			result.Violations = append(result.Violations, v)
		}
	}
	return result
}

// memoOracle pins one answer per query for the duration of a Validate call,
// so the four oracle rules agree even when a lookup fails.
type memoOracle struct {
	inner Oracle
	mu    sync.Mutex
	seen  map[[2]string]oracle.Resolution
}

func (m *memoOracle) Resolve(ctx context.Context, artist, title string) oracle.Resolution {
	key := [2]string{artist, title}
	m.mu.Lock()
	defer m.mu.Unlock()
	if res, ok := m.seen[key]; ok {
		return res
	}
	if m.seen == nil {
		m.seen = make(map[[2]string]oracle.Resolution)
	}
	res := m.inner.Resolve(ctx, artist, title)
	m.seen[key] = res
	return res
}
