package rules

import (
	"encoding/json"
	"fmt"

	"github.com/hiredeck/match-engine/internal/model"
)

// Severity grades a validation finding. Errors block saving a rule;
// warnings flag leaves the evaluator will always treat as false.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one problem or advisory from structural rule validation.
type Finding struct {
	Severity Severity `json:"severity"`
	Path     string   `json:"path"`
	Message  string   `json:"message"`
}

// HasErrors reports whether any finding is an error.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidateSyntax structurally checks condition and action documents
// without evaluating them. Deserialization rejects invalid shapes; field
// and operand checks surface as warnings since unknown fields merely
// evaluate false at runtime.
func ValidateSyntax(conditions, actions json.RawMessage) []Finding {
	var findings []Finding

	var tree model.ConditionTree
	if err := json.Unmarshal(conditions, &tree); err != nil {
		findings = append(findings, Finding{SeverityError, "conditions", err.Error()})
	} else {
		findings = append(findings, inspectTree(tree, "conditions")...)
	}

	var set model.ActionSet
	if err := json.Unmarshal(actions, &set); err != nil {
		findings = append(findings, Finding{SeverityError, "actions", err.Error()})
	}

	return findings
}

// inspectTree walks a valid tree flagging unknown field names and
// operator/value pairings that can never match.
func inspectTree(tree model.ConditionTree, path string) []Finding {
	var findings []Finding

	switch {
	case len(tree.All) > 0:
		for i, child := range tree.All {
			findings = append(findings, inspectTree(child, fmt.Sprintf("%s.and[%d]", path, i))...)
		}
		return findings
	case len(tree.Any) > 0:
		for i, child := range tree.Any {
			findings = append(findings, inspectTree(child, fmt.Sprintf("%s.or[%d]", path, i))...)
		}
		return findings
	}

	kind, known := FieldKindOf(tree.Field)
	if !known {
		findings = append(findings, Finding{
			SeverityWarning, path,
			fmt.Sprintf("unknown field %q always evaluates false", tree.Field),
		})
		return findings
	}

	switch tree.Operator {
	case model.OpGreater, model.OpGreaterOrEqual, model.OpLess, model.OpLessOrEqual:
		if kind == KindNumber {
			if _, ok := toFloat(tree.Value); !ok {
				findings = append(findings, Finding{
					SeverityWarning, path,
					fmt.Sprintf("numeric field %q compared against non-numeric value", tree.Field),
				})
			}
		}
		if kind == KindList {
			findings = append(findings, Finding{
				SeverityWarning, path,
				fmt.Sprintf("ordering operator cannot apply to list field %q", tree.Field),
			})
		}
	case model.OpContains:
		if kind == KindNumber {
			findings = append(findings, Finding{
				SeverityWarning, path,
				fmt.Sprintf("contains cannot apply to numeric field %q", tree.Field),
			})
		}
	}

	return findings
}
