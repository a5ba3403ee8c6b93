package condition

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mohitkumar/autoflow/logger"
	"github.com/mohitkumar/autoflow/model"
	"github.com/mohitkumar/autoflow/util"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

var Operators = []model.Operator{
	model.OP_EQUALS,
	model.OP_NOT_EQUALS,
	model.OP_CONTAINS,
	model.OP_GREATER_THAN,
	model.OP_LESS_THAN,
}

func ValidateOperator(op model.Operator) error {
	if !slices.Contains(Operators, op) {
		return fmt.Errorf("unsupported operator %q", op)
	}
	return nil
}

// Evaluate returns true when every condition holds. Conditions that can not
// be evaluated (unknown operator, missing field, non numeric comparison) are
// false.
func Evaluate(conditions []model.Condition, data map[string]any) bool {
	for i, cond := range conditions {
		if !EvaluateOne(cond, data) {
			logger.Debug("condition not met", zap.Int("index", i), zap.String("field", cond.Field), zap.String("operator", string(cond.Operator)))
			return false
		}
	}
	return true
}

func EvaluateOne(cond model.Condition, data map[string]any) bool {
	if ValidateOperator(cond.Operator) != nil {
		return false
	}
	actual, ok := util.Lookup(data, cond.Field)
	if !ok {
		return false
	}
	switch cond.Operator {
	case model.OP_EQUALS:
		return equal(actual, cond.Value)
	case model.OP_NOT_EQUALS:
		return !equal(actual, cond.Value)
	case model.OP_CONTAINS:
		if cond.Value == nil {
			return false
		}
		return strings.Contains(util.Stringify(actual), util.Stringify(cond.Value))
	case model.OP_GREATER_THAN, model.OP_LESS_THAN:
		a, okA := util.ToFloat(actual)
		b, okB := util.ToFloat(cond.Value)
		if !okA || !okB {
			return false
		}
		if cond.Operator == model.OP_GREATER_THAN {
			return a > b
		}
		return a < b
	}
	return false
}

// equal is strict: no coercion between strings and numbers, but numbers of
// different Go types compare by value.
func equal(a, b any) bool {
	if util.IsNumber(a) && util.IsNumber(b) {
		fa, _ := util.ToFloat(a)
		fb, _ := util.ToFloat(b)
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}
