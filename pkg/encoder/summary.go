package encoder

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Summary describes a serialized payload without evaluating it.
type Summary struct {
	Functions   []string `json:"functions"` // Distinct invoked function names, sorted
	Invocations int      `json:"invocations"`
	Lambdas     int      `json:"lambdas"`
	References  int      `json:"references"`
}

// Summarize inspects a serialized payload produced by this package.
func Summarize(payload []byte) (*Summary, error) {
	var root any
	if err := json.Unmarshal(payload, &root); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}

	names := map[string]bool{}
	sum := &Summary{}
	walkWire(root, func(obj map[string]any) {
		if name, ok := obj[KeyFunction].(string); ok {
			if _, hasArgs := obj[KeyArguments]; hasArgs {
				names[name] = true
				sum.Invocations++
			}
		}
		switch obj[KeyType] {
		case TypeFunction:
			sum.Lambdas++
		case TypeValueRef:
			sum.References++
		}
	})

	sum.Functions = make([]string, 0, len(names))
	for name := range names {
		sum.Functions = append(sum.Functions, name)
	}
	sort.Strings(sum.Functions)
	return sum, nil
}

func walkWire(v any, visit func(map[string]any)) {
	switch t := v.(type) {
	case map[string]any:
		// Constants are opaque data: a literal that happens to look like an invocation is not one.
		if _, isConst := t[KeyConstantValue]; isConst && len(t) == 1 {
			return
		}
		visit(t)
		for _, child := range t {
			walkWire(child, visit)
		}
	case []any:
		for _, child := range t {
			walkWire(child, visit)
		}
	}
}
