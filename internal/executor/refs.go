package executor

import (
	"reflect"
	"strconv"
	"strings"

	"boardsense.dev/sentinel/internal/model"
)

// resolveFEN resolves a fen_ref parameter value: "state:NAME" looks up a
// saved state slot, "step:N.<path>" reads a dotted path out of step N's
// result, and any other non-empty value is used as a literal FEN; an empty
// or unresolvable reference falls back to rootFEN (spec §4.7 reference resolution: "unresolvable references fall
// back to the current root FEN for FEN slots").
func (ex *Executor) resolveFEN(plan *model.ExecutionPlan, ref, rootFEN string) string {
	if ref == "" {
		return rootFEN
	}
	if name, ok := strings.CutPrefix(ref, "state:"); ok {
		if fen, ok := ex.StateSlots[name]; ok {
			return fen
		}
		return rootFEN
	}
	if path, ok := strings.CutPrefix(ref, "step:"); ok {
		if v, ok := resolveStepPath(plan, path); ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return rootFEN
	}
	return ref
}

// resolveLineRef resolves a line_ref parameter to a SAN sequence, or nil if
// unresolvable (spec §4.7: unresolvable non-FEN references fall back to
// None/nil rather than a root value).
func resolveLineRef(plan *model.ExecutionPlan, ref string) []string {
	if ref == "" {
		return nil
	}
	path, ok := strings.CutPrefix(ref, "step:")
	if !ok {
		return nil
	}
	v, ok := resolveStepPath(plan, path)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case []string:
		return t
	default:
		return nil
	}
}

// resolveStepPath implements "step:N.<dotted-path>": N is a step number,
// the remaining dot-separated segments index into that step's Result via
// JSON-tag-aware reflection over model types (dict-path and attribute-path
// support, per spec §4.7).
func resolveStepPath(plan *model.ExecutionPlan, path string) (any, bool) {
	parts := strings.SplitN(path, ".", 2)
	n, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, false
	}
	step, ok := plan.StepByNumber(n)
	if !ok || step.Result == nil {
		return nil, false
	}
	if len(parts) == 1 {
		return step.Result, true
	}
	return walkPath(step.Result, strings.Split(parts[1], "."))
}

func walkPath(v any, segments []string) (any, bool) {
	cur := reflect.ValueOf(v)
	for _, seg := range segments {
		for cur.Kind() == reflect.Ptr {
			if cur.IsNil() {
				return nil, false
			}
			cur = cur.Elem()
		}
		switch cur.Kind() {
		case reflect.Struct:
			field, ok := fieldByJSONName(cur, seg)
			if !ok {
				return nil, false
			}
			cur = field
		case reflect.Map:
			val := cur.MapIndex(reflect.ValueOf(seg))
			if !val.IsValid() {
				return nil, false
			}
			cur = val
		default:
			return nil, false
		}
	}
	if !cur.IsValid() || !cur.CanInterface() {
		return nil, false
	}
	return cur.Interface(), true
}

func fieldByJSONName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		tag = strings.Split(tag, ",")[0]
		if tag == name || strings.EqualFold(f.Name, name) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}
