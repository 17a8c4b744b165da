package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveParams(t *testing.T) {
	variables := map[string]any{
		"name":    "mohan",
		"age":     22,
		"address": "+15550001111",
		"http": map[string]any{
			"response": map[string]any{"status": 200},
		},
	}
	for scenario, fn := range map[string]func(t *testing.T){
		"test plain token": func(t *testing.T) {
			out := ResolveParams(variables, map[string]any{"text": "hello {name}"})
			require.Equal(t, "hello mohan", out["text"])
		},
		"test jsonpath token": func(t *testing.T) {
			out := ResolveParams(variables, map[string]any{"text": "status={$.http.response.status}"})
			require.Equal(t, "status=200", out["text"])
		},
		"test unknown token resolves empty": func(t *testing.T) {
			out := ResolveParams(variables, map[string]any{"text": "hi {missing}!"})
			require.Equal(t, "hi !", out["text"])
		},
		"test nested map and list": func(t *testing.T) {
			out := ResolveParams(variables, map[string]any{
				"buttons": []any{
					map[string]any{"title": "{name}"},
					"{age}",
				},
			})
			buttons := out["buttons"].([]any)
			require.Equal(t, "mohan", buttons[0].(map[string]any)["title"])
			require.Equal(t, "22", buttons[1])
		},
		"test non string values pass through": func(t *testing.T) {
			out := ResolveParams(variables, map[string]any{"count": 3, "flag": true})
			require.Equal(t, 3, out["count"])
			require.Equal(t, true, out["flag"])
		},
	} {
		t.Run(scenario, fn)
	}
}

func TestLookupVariable(t *testing.T) {
	variables := map[string]any{
		"reply": "yes",
		"sheets": map[string]any{
			"row": map[string]any{"city": "pune"},
		},
	}
	require.Equal(t, "yes", LookupVariable(variables, "reply"))
	require.Equal(t, "pune", LookupVariable(variables, "$.sheets.row.city"))
	require.Nil(t, LookupVariable(variables, "missing"))
	require.Nil(t, LookupVariable(variables, "$.sheets.row.missing"))
}

func TestRenderTemplate(t *testing.T) {
	out := RenderTemplate(map[string]any{"name": "sita"}, "hello {name}, hello {name}")
	require.Equal(t, "hello sita, hello sita", out)
}
