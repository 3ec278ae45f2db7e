package rules

import (
	"strings"

	"github.com/hiredeck/match-engine/internal/model"
)

// evalTree evaluates a condition tree with and/or short-circuiting.
func evalTree(tree model.ConditionTree, ctx *Context) bool {
	switch {
	case len(tree.All) > 0:
		for _, child := range tree.All {
			if !evalTree(child, ctx) {
				return false
			}
		}
		return true
	case len(tree.Any) > 0:
		for _, child := range tree.Any {
			if evalTree(child, ctx) {
				return true
			}
		}
		return false
	}
	return evalLeaf(tree, ctx)
}

// evalLeaf compares one context field against the rule's value. A missing
// field or an operand type mismatch evaluates false, never an error.
func evalLeaf(leaf model.ConditionTree, ctx *Context) bool {
	actual, ok := ctx.Lookup(leaf.Field)
	if !ok {
		return false
	}
	switch leaf.Operator {
	case model.OpEqual:
		return valuesEqual(actual, leaf.Value)
	case model.OpNotEqual:
		return !valuesEqual(actual, leaf.Value)
	case model.OpGreater, model.OpGreaterOrEqual, model.OpLess, model.OpLessOrEqual:
		return valuesOrdered(actual, leaf.Value, leaf.Operator)
	case model.OpIn:
		for _, item := range valueList(leaf.Value) {
			if valuesEqual(actual, item) {
				return true
			}
		}
		return false
	case model.OpContains:
		return valueContains(actual, leaf.Value)
	}
	return false
}

// toFloat coerces numeric values of the types that reach evaluation:
// struct fields, counts, and JSON-decoded numbers.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// valuesEqual compares numbers numerically, strings case-insensitively,
// and bools directly. Mixed types are unequal.
func valuesEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		return ok && strings.EqualFold(as, bs)
	}
	if ab, ok := a.(bool); ok {
		bb, ok := b.(bool)
		return ok && ab == bb
	}
	return false
}

// valuesOrdered applies an ordering operator: numeric when both sides
// coerce to numbers, lexical when both are strings.
func valuesOrdered(a, b any, op model.Operator) bool {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		if !ok {
			return false
		}
		switch op {
		case model.OpGreater:
			return af > bf
		case model.OpGreaterOrEqual:
			return af >= bf
		case model.OpLess:
			return af < bf
		case model.OpLessOrEqual:
			return af <= bf
		}
		return false
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if !aok || !bok {
		return false
	}
	cmp := strings.Compare(as, bs)
	switch op {
	case model.OpGreater:
		return cmp > 0
	case model.OpGreaterOrEqual:
		return cmp >= 0
	case model.OpLess:
		return cmp < 0
	case model.OpLessOrEqual:
		return cmp <= 0
	}
	return false
}

// valueList flattens a rule's list value. Deserialized documents carry
// []any; trees built in code may carry []string.
func valueList(v any) []any {
	switch list := v.(type) {
	case []any:
		return list
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out
	}
	return nil
}

// valueContains handles both containment senses: a context list containing
// the rule value, or a context string containing the rule substring.
func valueContains(actual, value any) bool {
	switch f := actual.(type) {
	case []string:
		for _, s := range f {
			if valuesEqual(s, value) {
				return true
			}
		}
		return false
	case []any:
		for _, item := range f {
			if valuesEqual(item, value) {
				return true
			}
		}
		return false
	case string:
		sub, ok := value.(string)
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(f), strings.ToLower(sub))
	}
	return false
}
