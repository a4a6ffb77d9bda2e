package recall

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/pipeline"
	"github.com/rushteam/cfkit/pkg/metrics"
	"github.com/rushteam/cfkit/pkg/utils"
)

// Hot 是热门召回：按选课人数推荐最热门的课程，分数为选课人数。
//
// 已交互的课程会被排除：已知用户排除其快照中的课程，临时画像排除 rctx.Items。
// 作为 Node 使用时，若上游已有结果（例如协同过滤给出的不足 TopN 条），
// 只用热门课程补齐到 TopN；上游为空时直接返回热门列表，可作为冷启动兜底。
//
// Catalog 配置后可通过 Trends 查询院系热度排行。
type Hot struct {
	Source core.InteractionSource

	// TopN 在请求未指定 TopN 时使用，都 <= 0 时退回 RecallConfig 默认值
	TopN int

	// Catalog 为课程目录存储（可选，仅 Trends 使用）
	Catalog core.Store
	// CatalogPrefix 目录 key 前缀，默认 "catalog"
	CatalogPrefix string
	// DepartmentField 目录记录中的院系字段，默认 "department"
	DepartmentField string

	Config core.RecallConfig
	Logger *zerolog.Logger
}

func (r *Hot) Name() string                { return "recall.hot" }
func (r *Hot) Kind() pipeline.Kind         { return pipeline.KindRecall }
func (r *Hot) SetLogger(l *zerolog.Logger) { r.Logger = l }

// Process 实现 Node 接口：上游为空时召回热门课程，否则补齐到 TopN。
func (r *Hot) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if rctx == nil {
		return items, nil
	}
	n := r.topN(rctx)
	if len(items) >= n {
		return items, nil
	}
	present := make(map[int64]struct{}, len(items))
	for _, it := range items {
		if it != nil {
			present[it.ID] = struct{}{}
		}
	}
	fill, err := r.recall(ctx, rctx, n-len(items), present)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 && r.Logger != nil {
		r.Logger.Debug().Int("upstream", len(items)).Int("filled", len(fill)).Msg("recall.hot: filled")
	}
	return append(items, fill...), nil
}

// Recall 实现 Source 接口。
func (r *Hot) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx == nil {
		return nil, nil
	}
	return r.recall(ctx, rctx, r.topN(rctx), nil)
}

func (r *Hot) recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	n int,
	present map[int64]struct{},
) ([]*core.Item, error) {
	if r.Source == nil || n <= 0 {
		return nil, nil
	}
	interactions, err := r.Source.Interactions(ctx)
	if err != nil {
		metrics.RecordRecommendation("hot", metrics.ResultError)
		return nil, core.WrapDomainError(core.ModuleSource, core.ErrorCodeUnavailable,
			"recall.hot: load interactions from "+r.Source.Name(), err)
	}

	exclude := seenBy(interactions, rctx)
	out := make([]*core.Item, 0, n)
	for _, ic := range CountItems(interactions) {
		if len(out) == n {
			break
		}
		if _, ok := exclude[ic.ItemID]; ok {
			continue
		}
		if _, ok := present[ic.ItemID]; ok {
			continue
		}
		it := core.NewItem(ic.ItemID)
		it.Score = float64(ic.Count)
		it.PutLabel("recall_source", utils.Label{Value: "hot", Source: "recall"})
		out = append(out, it)
	}

	if len(out) == 0 {
		metrics.RecordRecommendation("hot", metrics.ResultEmpty)
	} else {
		metrics.RecordRecommendation("hot", metrics.ResultOK)
	}
	return out, nil
}

// Trends 返回院系热度排行，需要配置 Catalog。
func (r *Hot) Trends(ctx context.Context) ([]DepartmentCount, error) {
	return DepartmentTrends(ctx, r.Source, r.Catalog, r.CatalogPrefix, r.DepartmentField)
}

// Close 关闭实现了 io.Closer 的数据源与目录存储。
func (r *Hot) Close() error {
	var err error
	if c, ok := r.Source.(io.Closer); ok {
		err = c.Close()
	}
	if r.Catalog != nil {
		if cerr := r.Catalog.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (r *Hot) topN(rctx *core.RecommendContext) int {
	if rctx != nil && rctx.TopN > 0 {
		return rctx.TopN
	}
	if r.TopN > 0 {
		return r.TopN
	}
	cfg := r.Config
	if cfg == nil {
		cfg = &core.DefaultRecallConfig{}
	}
	return cfg.DefaultTopN()
}

// seenBy 返回目标已交互的物品：临时画像为 rctx.Items，否则为快照中该用户的记录。
func seenBy(interactions []core.Interaction, rctx *core.RecommendContext) map[int64]struct{} {
	if rctx.IsAdHoc() {
		return setOf(rctx.Items)
	}
	seen := make(map[int64]struct{})
	for _, in := range interactions {
		if in.UserID == rctx.UserID {
			seen[in.ItemID] = struct{}{}
		}
	}
	return seen
}

var (
	_ Source        = (*Hot)(nil)
	_ pipeline.Node = (*Hot)(nil)
)
