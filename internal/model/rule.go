package model

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Operator is a leaf condition's comparison operator.
type Operator string

const (
	OpEqual          Operator = "="
	OpNotEqual       Operator = "!="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpIn             Operator = "in"
	OpContains       Operator = "contains"
)

var validOperators = map[Operator]bool{
	OpEqual:          true,
	OpNotEqual:       true,
	OpGreater:        true,
	OpGreaterOrEqual: true,
	OpLess:           true,
	OpLessOrEqual:    true,
	OpIn:             true,
	OpContains:       true,
}

// ConditionTree is either a single leaf comparison or an and/or combinator
// over child trees. Exactly one of the two shapes is set; deserialization
// rejects documents that mix shapes, use unknown operators or keys, or
// declare a combinator with no children.
type ConditionTree struct {
	Field    string   `json:"field,omitempty"`
	Operator Operator `json:"operator,omitempty"`
	Value    any      `json:"value,omitempty"`

	All []ConditionTree `json:"and,omitempty"`
	Any []ConditionTree `json:"or,omitempty"`
}

// IsLeaf reports whether the tree is a single comparison.
func (c ConditionTree) IsLeaf() bool {
	return len(c.All) == 0 && len(c.Any) == 0
}

// Validate checks the tree's shape without evaluating it. Trees built in
// code go through the same checks as deserialized ones.
func (c ConditionTree) Validate() error {
	leaf := c.Field != "" || c.Operator != "" || c.Value != nil
	switch {
	case len(c.All) > 0 && len(c.Any) > 0:
		return eris.New("model: condition mixes and/or combinators")
	case (len(c.All) > 0 || len(c.Any) > 0) && leaf:
		return eris.New("model: condition mixes leaf and combinator keys")
	case len(c.All) > 0:
		for i, child := range c.All {
			if err := child.Validate(); err != nil {
				return eris.Wrapf(err, "model: and child %d", i)
			}
		}
		return nil
	case len(c.Any) > 0:
		for i, child := range c.Any {
			if err := child.Validate(); err != nil {
				return eris.Wrapf(err, "model: or child %d", i)
			}
		}
		return nil
	case !leaf:
		return eris.New("model: empty condition")
	}
	return c.validateLeaf()
}

func (c ConditionTree) validateLeaf() error {
	if strings.TrimSpace(c.Field) == "" {
		return eris.New("model: condition field is empty")
	}
	if !validOperators[c.Operator] {
		return eris.Errorf("model: unknown operator %q", c.Operator)
	}
	if c.Operator == OpIn {
		switch c.Value.(type) {
		case []any, []string:
		default:
			return eris.New(`model: "in" operator requires a list value`)
		}
	}
	return nil
}

// UnmarshalJSON decodes a condition document, rejecting invalid shapes.
func (c *ConditionTree) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "model: parse condition")
	}
	for k := range raw {
		switch k {
		case "field", "operator", "value", "and", "or":
		default:
			return eris.Errorf("model: condition has unknown key %q", k)
		}
	}
	_, hasAnd := raw["and"]
	_, hasOr := raw["or"]
	_, hasField := raw["field"]
	_, hasOp := raw["operator"]
	_, hasValue := raw["value"]

	if hasAnd || hasOr {
		if hasAnd && hasOr {
			return eris.New("model: condition mixes and/or combinators")
		}
		if hasField || hasOp || hasValue {
			return eris.New("model: condition mixes leaf and combinator keys")
		}
		key := "and"
		if hasOr {
			key = "or"
		}
		var children []ConditionTree
		if err := json.Unmarshal(raw[key], &children); err != nil {
			return eris.Wrapf(err, "model: parse %q children", key)
		}
		if len(children) == 0 {
			return eris.Errorf("model: %q combinator has no children", key)
		}
		if hasAnd {
			c.All = children
		} else {
			c.Any = children
		}
		return nil
	}

	if !hasField || !hasOp || !hasValue {
		return eris.New("model: leaf condition requires field, operator, and value")
	}
	if err := json.Unmarshal(raw["field"], &c.Field); err != nil {
		return eris.Wrap(err, "model: parse condition field")
	}
	if err := json.Unmarshal(raw["operator"], &c.Operator); err != nil {
		return eris.Wrap(err, "model: parse condition operator")
	}
	if err := json.Unmarshal(raw["value"], &c.Value); err != nil {
		return eris.Wrap(err, "model: parse condition value")
	}
	return c.validateLeaf()
}

// MarshalJSON writes the tree back in its canonical document form. Leaf
// values always serialize, including zero values.
func (c ConditionTree) MarshalJSON() ([]byte, error) {
	switch {
	case len(c.All) > 0:
		return json.Marshal(map[string][]ConditionTree{"and": c.All})
	case len(c.Any) > 0:
		return json.Marshal(map[string][]ConditionTree{"or": c.Any})
	}
	return json.Marshal(struct {
		Field    string   `json:"field"`
		Operator Operator `json:"operator"`
		Value    any      `json:"value"`
	}{c.Field, c.Operator, c.Value})
}

// ActionKind tags the concrete action type in serialized rule documents.
type ActionKind string

const (
	ActionDisqualify     ActionKind = "disqualify"
	ActionSetCategory    ActionKind = "set_category_score"
	ActionModifyCategory ActionKind = "modify_category_score"
	ActionSetOverall     ActionKind = "set_overall_score"
)

// ScoreCategory names one of the four attribute sub-scores.
type ScoreCategory string

const (
	CategorySkill      ScoreCategory = "skill"
	CategoryExperience ScoreCategory = "experience"
	CategoryEducation  ScoreCategory = "education"
	CategoryLocation   ScoreCategory = "location"
)

// Valid reports whether c names a known score category.
func (c ScoreCategory) Valid() bool {
	switch c {
	case CategorySkill, CategoryExperience, CategoryEducation, CategoryLocation:
		return true
	}
	return false
}

// ModifyOp is how modify_category_score combines its value with the
// current category score.
type ModifyOp string

const (
	ModifyAdditive       ModifyOp = "additive"
	ModifyMultiplicative ModifyOp = "multiplicative"
)

// actionKeys lists the document keys each action kind accepts.
var actionKeys = map[ActionKind]map[string]bool{
	ActionDisqualify:     {"type": true, "reason": true},
	ActionSetCategory:    {"type": true, "category": true, "value": true},
	ActionModifyCategory: {"type": true, "category": true, "op": true, "value": true},
	ActionSetOverall:     {"type": true, "value": true},
}

// Action is one effect a matched rule applies. Kind selects which of the
// remaining fields are meaningful.
type Action struct {
	Kind     ActionKind    `json:"type"`
	Reason   string        `json:"reason,omitempty"`
	Category ScoreCategory `json:"category,omitempty"`
	Op       ModifyOp      `json:"op,omitempty"`
	Value    float64       `json:"value"`
}

// Validate checks kind-specific required fields and value ranges.
func (a Action) Validate() error {
	switch a.Kind {
	case ActionDisqualify:
		if strings.TrimSpace(a.Reason) == "" {
			return eris.New("model: disqualify action requires a reason")
		}
	case ActionSetCategory:
		if !a.Category.Valid() {
			return eris.Errorf("model: unknown score category %q", a.Category)
		}
		if a.Value < 0 || a.Value > 100 {
			return eris.Errorf("model: set_category_score value %.2f out of range [0,100]", a.Value)
		}
	case ActionModifyCategory:
		if !a.Category.Valid() {
			return eris.Errorf("model: unknown score category %q", a.Category)
		}
		if a.Op != ModifyAdditive && a.Op != ModifyMultiplicative {
			return eris.Errorf("model: unknown modify op %q", a.Op)
		}
	case ActionSetOverall:
		if a.Value < 0 || a.Value > 100 {
			return eris.Errorf("model: set_overall_score value %.2f out of range [0,100]", a.Value)
		}
	default:
		return eris.Errorf("model: unknown action type %q", a.Kind)
	}
	return nil
}

// UnmarshalJSON decodes one action, rejecting unknown kinds, unknown keys,
// and out-of-range values.
func (a *Action) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "model: parse action")
	}
	kindRaw, ok := raw["type"]
	if !ok {
		return eris.New("model: action missing type")
	}
	var kind ActionKind
	if err := json.Unmarshal(kindRaw, &kind); err != nil {
		return eris.Wrap(err, "model: parse action type")
	}
	allowed, ok := actionKeys[kind]
	if !ok {
		return eris.Errorf("model: unknown action type %q", kind)
	}
	for k := range raw {
		if !allowed[k] {
			return eris.Errorf("model: action %q has unknown key %q", kind, k)
		}
	}
	a.Kind = kind
	if r, ok := raw["reason"]; ok {
		if err := json.Unmarshal(r, &a.Reason); err != nil {
			return eris.Wrap(err, "model: parse action reason")
		}
	}
	if r, ok := raw["category"]; ok {
		if err := json.Unmarshal(r, &a.Category); err != nil {
			return eris.Wrap(err, "model: parse action category")
		}
	}
	if r, ok := raw["op"]; ok {
		if err := json.Unmarshal(r, &a.Op); err != nil {
			return eris.Wrap(err, "model: parse action op")
		}
	}
	if r, ok := raw["value"]; ok {
		if err := json.Unmarshal(r, &a.Value); err != nil {
			return eris.Wrap(err, "model: parse action value")
		}
	}
	return a.Validate()
}

// MarshalJSON writes the action in its canonical per-kind document form.
func (a Action) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case ActionDisqualify:
		return json.Marshal(struct {
			Kind   ActionKind `json:"type"`
			Reason string     `json:"reason"`
		}{a.Kind, a.Reason})
	case ActionSetCategory:
		return json.Marshal(struct {
			Kind     ActionKind    `json:"type"`
			Category ScoreCategory `json:"category"`
			Value    float64       `json:"value"`
		}{a.Kind, a.Category, a.Value})
	case ActionModifyCategory:
		return json.Marshal(struct {
			Kind     ActionKind    `json:"type"`
			Category ScoreCategory `json:"category"`
			Op       ModifyOp      `json:"op"`
			Value    float64       `json:"value"`
		}{a.Kind, a.Category, a.Op, a.Value})
	case ActionSetOverall:
		return json.Marshal(struct {
			Kind  ActionKind `json:"type"`
			Value float64    `json:"value"`
		}{a.Kind, a.Value})
	}
	return nil, eris.Errorf("model: marshal action: unknown kind %q", a.Kind)
}

// ActionSet is the non-empty ordered list of actions a matched rule
// applies.
type ActionSet []Action

// UnmarshalJSON decodes the list and rejects empty action sets.
func (s *ActionSet) UnmarshalJSON(data []byte) error {
	var list []Action
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	if len(list) == 0 {
		return eris.New("model: action set is empty")
	}
	*s = list
	return nil
}

// ScoringRule is one data-driven rule evaluated against a candidate-job
// pair. Rules bound to a job run for that job; rules bound to a template
// run for jobs referencing the template.
type ScoringRule struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Description    string        `json:"description,omitempty"`
	JobID          string        `json:"job_id,omitempty"`
	TemplateID     string        `json:"template_id,omitempty"`
	Active         bool          `json:"active"`
	Priority       int           `json:"priority"`
	ExecutionOrder int           `json:"execution_order"`
	StopOnMatch    bool          `json:"stop_on_match"`
	Conditions     ConditionTree `json:"conditions"`
	Actions        ActionSet     `json:"actions"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Validate checks a rule document before it is written.
func (r ScoringRule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return eris.New("model: rule name is empty")
	}
	if r.JobID != "" && r.TemplateID != "" {
		return eris.New("model: rule binds to both a job and a template")
	}
	if err := r.Conditions.Validate(); err != nil {
		return err
	}
	if len(r.Actions) == 0 {
		return eris.New("model: rule has no actions")
	}
	for i, a := range r.Actions {
		if err := a.Validate(); err != nil {
			return eris.Wrapf(err, "model: action %d", i)
		}
	}
	return nil
}

// SortRules orders rules for evaluation: priority ascending, then
// execution order, then creation time as the final tiebreak.
func SortRules(rules []ScoringRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.ExecutionOrder != b.ExecutionOrder {
			return a.ExecutionOrder < b.ExecutionOrder
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

// RuleTemplate groups reusable rules that jobs opt into by template id.
type RuleTemplate struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ActionEffect records one applied action with its before and after
// values. Target is the affected category, "overall", or "disqualified".
type ActionEffect struct {
	Action Action  `json:"action"`
	Target string  `json:"target"`
	Before float64 `json:"before"`
	After  float64 `json:"after"`
}

// RuleApplication is one audit-trail entry for a rule evaluated against a
// pair. Every evaluated rule gets an entry; matched rules carry their
// applied effects and malformed rules carry the evaluation error.
type RuleApplication struct {
	RuleID   string         `json:"rule_id"`
	RuleName string         `json:"rule_name"`
	Matched  bool           `json:"matched"`
	Halted   bool           `json:"halted,omitempty"`
	Effects  []ActionEffect `json:"effects,omitempty"`
	Error    string         `json:"error,omitempty"`
}
