package filter

import (
	"context"

	"github.com/rushteam/moodmeal/core"
	"github.com/rushteam/moodmeal/pkg/dsl"
)

// ExprFilter 保留 CEL 表达式求值为 true 的候选。
//
// 静态表达式在构建时编译；FromRequest 为 true 时还会叠加 rctx.Constraints.Expr。
type ExprFilter struct {
	program     *dsl.Program
	FromRequest bool
}

// NewExprFilter 编译静态表达式，expr 为空时只使用请求表达式。
func NewExprFilter(expr string, fromRequest bool) (*ExprFilter, error) {
	f := &ExprFilter{FromRequest: fromRequest}
	if expr != "" {
		p, err := dsl.Compile(expr)
		if err != nil {
			return nil, err
		}
		f.program = p
	}
	return f, nil
}

func (f *ExprFilter) Name() string { return "filter.expr" }

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.program != nil {
		ok, err := f.program.Eval(item, rctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return true, nil
		}
	}
	if f.FromRequest && rctx != nil && rctx.Constraints.Expr != "" {
		ok, err := dsl.Evaluate(rctx.Constraints.Expr, item, rctx)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}
	return false, nil
}
