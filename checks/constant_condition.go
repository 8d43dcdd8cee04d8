package checks

import (
	"fmt"

	"github.com/benbjohnson/jslee"
)

// ConstantCondition reports conditions which always evaluate to the same
// truthiness on every explored path.
type ConstantCondition struct {
	jslee.BaseCheck
	sink       jslee.IssueSink
	conditions map[*jslee.Node]*conditionOutcome
	order      []*jslee.Node
}

type conditionOutcome struct {
	truthy, falsy bool
}

// NewConstantCondition returns a new instance of ConstantCondition.
func NewConstantCondition(sink jslee.IssueSink) *ConstantCondition {
	return &ConstantCondition{sink: sink}
}

// Name returns the check name.
func (c *ConstantCondition) Name() string { return ConstantConditionName }

// StartOfExecution resets the outcomes recorded for the previous function.
func (c *ConstantCondition) StartOfExecution(fn *jslee.Function) {
	c.conditions = make(map[*jslee.Node]*conditionOutcome)
	c.order = nil
}

// ConditionBranches records which branches of condition are feasible.
func (c *ConstantCondition) ConditionBranches(condition *jslee.Node, truthy, falsy *jslee.ProgramState) {
	outcome := c.conditions[condition]
	if outcome == nil {
		outcome = &conditionOutcome{}
		c.conditions[condition] = outcome
		c.order = append(c.order, condition)
	}
	outcome.truthy = outcome.truthy || truthy != nil
	outcome.falsy = outcome.falsy || falsy != nil
}

// EndOfExecution reports conditions with a single feasible branch.
func (c *ConstantCondition) EndOfExecution(fn *jslee.Function) {
	for _, condition := range c.order {
		outcome := c.conditions[condition]
		if outcome.truthy == outcome.falsy || isExempt(condition) {
			continue
		}

		value := "false"
		if outcome.truthy {
			value = "true"
		}

		tested := condition
		if condition.Kind == jslee.KindLogical && len(condition.Children) > 0 {
			tested = condition.Children[0]
		}

		c.sink.Report(jslee.Issue{
			Check:   ConstantConditionName,
			Message: fmt.Sprintf("Refactor this code so that %q does not always evaluate to %s.", tested.String(), value),
			Pos:     tested.Pos,
		})
	}
}

// isExempt returns true for intentionally constant conditions such as
// `while (true)` and for loop heads over collections. Nullish coalescing
// tests nullishness rather than truthiness and is not reported.
func isExempt(condition *jslee.Node) bool {
	if condition.Kind == jslee.KindLogical && condition.Op == "??" {
		return true
	}
	if condition.Kind == jslee.KindLogical && len(condition.Children) > 0 {
		condition = condition.Children[0]
	}
	switch condition.Kind {
	case jslee.KindBooleanLiteral, jslee.KindNumberLiteral, jslee.KindForEachHead, jslee.KindOtherExpression:
		return true
	default:
		return false
	}
}
