package util

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oliveagle/jsonpath"
)

var tokenRe = regexp.MustCompile(`{(.*?)}`)

// ResolveParams substitutes session variables into a node's config bag.
// String values may carry {name} or {$.json.path} tokens; unknown tokens
// resolve to the empty string. Maps and lists are resolved recursively.
func ResolveParams(variables map[string]any, params map[string]any) map[string]any {
	output := make(map[string]any)
	resolveParams(variables, params, output)
	return output
}

// RenderTemplate substitutes variable tokens into a single string.
func RenderTemplate(variables map[string]any, tpl string) string {
	return resolveString(variables, tpl)
}

func resolveParams(variables map[string]any, params map[string]any, output map[string]any) {
	for k, v := range params {
		switch val := v.(type) {
		case map[string]any:
			out := make(map[string]any)
			output[k] = out
			resolveParams(variables, val, out)
		case string:
			output[k] = resolveString(variables, val)
		case []any:
			output[k] = resolveList(variables, val)
		default:
			output[k] = v
		}
	}
}

func resolveList(variables map[string]any, list []any) []any {
	var output []any
	for _, v := range list {
		switch val := v.(type) {
		case map[string]any:
			out := make(map[string]any)
			resolveParams(variables, val, out)
			output = append(output, out)
		case string:
			output = append(output, resolveString(variables, val))
		case []any:
			output = append(output, resolveList(variables, val))
		default:
			output = append(output, v)
		}
	}
	return output
}

func resolveString(variables map[string]any, s string) string {
	tokens := tokenRe.FindAllString(s, -1)
	if len(tokens) == 0 {
		return s
	}
	out := s
	for _, token := range tokens {
		name := strings.TrimSuffix(strings.TrimPrefix(token, "{"), "}")
		value := LookupVariable(variables, name)
		if value == nil {
			out = strings.ReplaceAll(out, token, "")
			continue
		}
		out = strings.ReplaceAll(out, token, fmt.Sprintf("%v", value))
	}
	return out
}

// LookupVariable resolves a bare key or a $-prefixed jsonpath expression
// against the variable bag. Missing values return nil.
func LookupVariable(variables map[string]any, name string) any {
	if strings.HasPrefix(name, "$") {
		value, err := jsonpath.JsonPathLookup(map[string]any(variables), name)
		if err != nil {
			return nil
		}
		return value
	}
	value, ok := variables[name]
	if !ok {
		return nil
	}
	return value
}
