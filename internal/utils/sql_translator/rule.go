package sql_translator

import (
	"regexp"
	"slices"
)

// TagStorage marks rules that normalize storage-format declarations. They
// also run on statements the planner accepted unmodified.
const TagStorage = "storage"

// Rule is one pure text rewrite addressing a single dialect incompatibility.
// Apply is only invoked when Detect reports true.
type Rule struct {
	Name        string
	Description string
	Tags        []string
	Detect      func(sql string) bool
	Apply       func(sql string) string
	// Describe overrides Description when the note depends on the input.
	Describe func(sql string) string
	// Advisory rules never change text; they only contribute a note.
	Advisory bool
}

// HasTag reports whether the rule carries the tag.
func (r Rule) HasTag(tag string) bool {
	return slices.Contains(r.Tags, tag)
}

func (r Rule) describe(sql string) string {
	if r.Describe != nil {
		return r.Describe(sql)
	}
	return r.Description
}

// AppliedRule records a rule that changed the text.
type AppliedRule struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Result is the outcome of one engine pass.
type Result struct {
	Text       string        `json:"text"`
	Applied    []AppliedRule `json:"applied"`
	Advisories []string      `json:"advisories,omitempty"`
}

// Changed reports whether at least one rule rewrote the text.
func (r Result) Changed() bool {
	return len(r.Applied) > 0
}

// Descriptions returns the notes of every applied rule in order.
func (r Result) Descriptions() []string {
	out := make([]string, 0, len(r.Applied))
	for _, a := range r.Applied {
		out = append(out, a.Description)
	}
	return out
}

// Engine runs a fixed, ordered rule catalog in a single forward pass.
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine over the given catalog; order is significant.
func NewEngine(rules ...Rule) *Engine {
	return &Engine{rules: rules}
}

// Rules returns a copy of the catalog.
func (e *Engine) Rules() []Rule {
	return slices.Clone(e.rules)
}

// Apply runs every rule against the current text.
func (e *Engine) Apply(sql string) Result {
	return e.run(sql, func(Rule) bool { return true })
}

// ApplyTagged runs only the rules carrying tag.
func (e *Engine) ApplyTagged(sql, tag string) Result {
	return e.run(sql, func(r Rule) bool { return r.HasTag(tag) })
}

func (e *Engine) run(sql string, include func(Rule) bool) Result {
	res := Result{Text: sql}
	for _, rule := range e.rules {
		if !include(rule) || !rule.Detect(res.Text) {
			continue
		}
		if rule.Advisory {
			res.Advisories = append(res.Advisories, rule.describe(res.Text))
			continue
		}
		rewritten := rule.Apply(res.Text)
		if rewritten == res.Text {
			continue
		}
		res.Applied = append(res.Applied, AppliedRule{Name: rule.Name, Description: rule.describe(res.Text)})
		res.Text = rewritten
	}
	return res
}

// replaceRule builds a rule that rewrites every match of re with repl.
func replaceRule(name, description string, re *regexp.Regexp, repl string, tags ...string) Rule {
	return Rule{
		Name:        name,
		Description: description,
		Tags:        tags,
		Detect:      re.MatchString,
		Apply:       func(sql string) string { return re.ReplaceAllString(sql, repl) },
	}
}
