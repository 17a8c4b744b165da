package flow

import (
	"testing"

	"github.com/chatflowhq/chatflow/model"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	candidates := []model.Flow{
		{Id: "f1", Status: model.FLOW_STATUS_PAUSED, Triggers: []string{"hello"}},
		{Id: "f2", Status: model.FLOW_STATUS_ACTIVE, Triggers: []string{"hello", "hi"}},
		{Id: "f3", Status: model.FLOW_STATUS_ACTIVE, Triggers: []string{"hello"}},
	}
	for scenario, fn := range map[string]func(t *testing.T){
		"test first active flow wins": func(t *testing.T) {
			matched := Match(candidates, "Hello there")
			require.NotNil(t, matched)
			require.Equal(t, "f2", matched.Id)
		},
		"test inactive flow never matches": func(t *testing.T) {
			only := []model.Flow{candidates[0]}
			require.Nil(t, Match(only, "hello"))
		},
		"test keyword is a substring match": func(t *testing.T) {
			matched := Match(candidates, "well HI friend")
			require.NotNil(t, matched)
			require.Equal(t, "f2", matched.Id)
		},
		"test no match returns nil": func(t *testing.T) {
			require.Nil(t, Match(candidates, "goodbye"))
		},
		"test empty text returns nil": func(t *testing.T) {
			require.Nil(t, Match(candidates, "   "))
		},
		"test empty trigger never matches": func(t *testing.T) {
			blank := []model.Flow{{Id: "f4", Status: model.FLOW_STATUS_ACTIVE, Triggers: []string{""}}}
			require.Nil(t, Match(blank, "anything"))
		},
	} {
		t.Run(scenario, fn)
	}
}
