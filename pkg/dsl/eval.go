// Package dsl 提供基于 CEL (Common Expression Language) 的物品表达式求值。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/cfkit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译后的布尔表达式，可被多个 goroutine 并发求值。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：item.score > 0.5 / item.id == 42
//   - 标签：label.cf_mode == "adhoc"
//   - 元信息：item.meta.department == "CSE"
//   - 请求：rctx.top_n > 3 / rctx.scene == "catalog"
//   - 逻辑：item.score > 0.3 && label.recall_source == "user_cf"
//
// 访问不存在的 key 会求值失败，存在性可用 "key" in item.meta 检查。
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式，要求结果类型为 bool。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

func (p *Program) String() string { return p.expr }

// Eval 对单个物品求值。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q must return boolean, got %T", p.expr, out.Value())
	}
	return result, nil
}

func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}

	meta := item.Meta
	if meta == nil {
		meta = map[string]any{}
	}

	itemInput := map[string]any{
		"id":    item.ID,
		"score": item.Score,
		"meta":  meta,
	}

	rctxInput := map[string]any{}
	if rctx != nil {
		params := rctx.Params
		if params == nil {
			params = map[string]any{}
		}
		items := rctx.Items
		if items == nil {
			items = []int64{}
		}
		rctxInput = map[string]any{
			"user_id": rctx.UserID,
			"items":   items,
			"top_n":   int64(rctx.TopN),
			"scene":   rctx.Scene,
			"params":  params,
		}
	}

	return map[string]any{
		"item":  itemInput,
		"label": labels,
		"rctx":  rctxInput,
	}
}
