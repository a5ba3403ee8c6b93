package condition

import (
	"testing"

	"github.com/mohitkumar/autoflow/model"
	"github.com/stretchr/testify/require"
)

func TestEvaluateEmptyIsTrue(t *testing.T) {
	require.True(t, Evaluate(nil, nil))
	require.True(t, Evaluate([]model.Condition{}, map[string]any{"a": 1}))
}

func TestEvaluateOperators(t *testing.T) {
	data := map[string]any{
		"score": float64(-1),
		"name":  "release-2024",
		"user":  map[string]any{"role": "admin", "age": "42"},
		"tags":  []any{"a", "b"},
		"flag":  true,
	}
	for scenario, tc := range map[string]struct {
		cond model.Condition
		want bool
	}{
		"equals string":             {model.Condition{Field: "user.role", Operator: model.OP_EQUALS, Value: "admin"}, true},
		"equals int vs float":       {model.Condition{Field: "score", Operator: model.OP_EQUALS, Value: -1}, true},
		"equals is strict":          {model.Condition{Field: "user.age", Operator: model.OP_EQUALS, Value: 42}, false},
		"equals bool":               {model.Condition{Field: "flag", Operator: model.OP_EQUALS, Value: true}, true},
		"not equals":                {model.Condition{Field: "user.role", Operator: model.OP_NOT_EQUALS, Value: "guest"}, true},
		"contains":                  {model.Condition{Field: "name", Operator: model.OP_CONTAINS, Value: "2024"}, true},
		"contains number":           {model.Condition{Field: "name", Operator: model.OP_CONTAINS, Value: 20}, true},
		"contains list":             {model.Condition{Field: "tags", Operator: model.OP_CONTAINS, Value: "b"}, true},
		"contains missing":          {model.Condition{Field: "name", Operator: model.OP_CONTAINS, Value: "x"}, false},
		"less than":                 {model.Condition{Field: "score", Operator: model.OP_LESS_THAN, Value: 0}, true},
		"greater than":              {model.Condition{Field: "score", Operator: model.OP_GREATER_THAN, Value: 0}, false},
		"greater than numeric text": {model.Condition{Field: "user.age", Operator: model.OP_GREATER_THAN, Value: 40}, true},
		"numeric on text fails":     {model.Condition{Field: "name", Operator: model.OP_GREATER_THAN, Value: 1}, false},
		"unknown operator":          {model.Condition{Field: "score", Operator: "matches", Value: ".*"}, false},
		"jsonpath field":            {model.Condition{Field: "$.user.role", Operator: model.OP_EQUALS, Value: "admin"}, true},
	} {
		t.Run(scenario, func(t *testing.T) {
			require.Equal(t, tc.want, EvaluateOne(tc.cond, data))
		})
	}
}

func TestMissingFieldIsFalseForEveryOperator(t *testing.T) {
	for _, op := range Operators {
		cond := model.Condition{Field: "missing.path", Operator: op, Value: "x"}
		require.False(t, EvaluateOne(cond, map[string]any{"other": 1}), string(op))
	}
}

func TestEvaluateIsConjunctive(t *testing.T) {
	data := map[string]any{"score": float64(-1)}
	conds := []model.Condition{
		{Field: "score", Operator: model.OP_LESS_THAN, Value: 0},
		{Field: "score", Operator: model.OP_GREATER_THAN, Value: -5},
	}
	require.True(t, Evaluate(conds, data))

	require.False(t, Evaluate(conds, map[string]any{"score": float64(5)}))
}

func TestValidateOperator(t *testing.T) {
	require.NoError(t, ValidateOperator(model.OP_CONTAINS))
	require.Error(t, ValidateOperator("between"))
}
