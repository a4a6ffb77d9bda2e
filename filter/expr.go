package filter

import (
	"context"

	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/pkg/dsl"
)

// ExprFilter 用 CEL 表达式描述过滤条件：表达式为 true 的物品被过滤掉。
//
// 示例：
//   - item.score < 0.2                     低相似度邻居贡献的物品
//   - item.meta.department == "PE"         某个院系的课程
type ExprFilter struct {
	prg *dsl.Program
}

// NewExprFilter 编译表达式，编译失败时返回 error。
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{prg: prg}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	return f.prg.Eval(item, rctx)
}
