package recall

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/matrix"
	"github.com/rushteam/cfkit/pipeline"
	"github.com/rushteam/cfkit/pkg/logging"
	"github.com/rushteam/cfkit/pkg/metrics"
	"github.com/rushteam/cfkit/pkg/utils"
)

// Candidate 是一个推荐候选：物品 ID 及其贡献分数。
// Score 为最先贡献该物品的邻居的相似度，NeighborID 为该邻居。
type Candidate struct {
	ItemID     int64
	Score      float64
	NeighborID int64
}

// UserCF 是基于用户的协同过滤召回源（User-based Collaborative Filtering）。
//
// 核心思想："兴趣相似的用户，喜欢相似的物品"
//
// 算法流程：
//  1. 交互记录 → 用户×物品 0/1 矩阵（matrix.Build）
//  2. 目标行与其余每一行计算余弦相似度，按相似度降序排列邻居
//  3. 自上而下遍历邻居，相似度 <= 0 或候选池达到 TopN * OverCollect 时停止
//  4. 邻居交互过、目标未交互过的物品进入候选池，分数取最先贡献它的邻居的相似度
//  5. 候选按分数降序、去重、截取 TopN
//
// 目标有两种：矩阵中已存在的用户，或由物品列表临时构造的虚拟用户
// （rctx.Items 非空）。每次请求都从数据源重新构建矩阵，不缓存任何状态。
type UserCF struct {
	Source core.InteractionSource

	// TopN 默认推荐数量（请求未指定时使用）
	TopN int

	// OverCollect 候选池超额收集倍数
	OverCollect int

	// MinAdHocItems 临时画像请求至少需要的不同物品数
	MinAdHocItems int

	// Config 提供以上字段的默认值，为空时使用 core.DefaultRecallConfig
	Config core.RecallConfig

	Logger *zerolog.Logger
}

func (r *UserCF) Name() string        { return "recall.user_cf" }
func (r *UserCF) Kind() pipeline.Kind { return pipeline.KindRecall }

// SetLogger 实现 pipeline.LoggerSetter。
func (r *UserCF) SetLogger(l *zerolog.Logger) { r.Logger = l }

// Process 实现 Node 接口，直接调用 Recall
func (r *UserCF) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口：读取交互快照、构建矩阵并推荐。
func (r *UserCF) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Source == nil || rctx == nil {
		return nil, nil
	}
	mode := modeOf(rctx.Items)
	if err := r.checkAdHoc(rctx.Items); err != nil {
		metrics.RecordRecommendation(mode, metrics.ResultRejected)
		return nil, err
	}

	m, err := r.load(ctx)
	if err != nil {
		metrics.RecordRecommendation(mode, metrics.ResultError)
		return nil, err
	}

	cands := r.Recommend(m, rctx.UserID, rctx.Items, rctx.TopN)
	if len(cands) == 0 {
		metrics.RecordRecommendation(mode, metrics.ResultEmpty)
	} else {
		metrics.RecordRecommendation(mode, metrics.ResultOK)
	}
	out := make([]*core.Item, 0, len(cands))
	for _, c := range cands {
		it := core.NewItem(c.ItemID)
		it.Score = c.Score
		it.PutLabel("recall_source", utils.Label{Value: "user_cf", Source: "recall"})
		it.PutLabel("cf_mode", utils.Label{Value: mode, Source: "recall"})
		it.PutLabel("cf_neighbor", utils.Label{Value: strconv.FormatInt(c.NeighborID, 10), Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

func (r *UserCF) load(ctx context.Context) (*matrix.Matrix, error) {
	interactions, err := r.Source.Interactions(ctx)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleSource, core.ErrorCodeUnavailable,
			"recall.user_cf: load interactions from "+r.Source.Name(), err)
	}
	m := matrix.Build(interactions)
	metrics.RecordMatrix(m.NumUsers(), m.NumItems())
	return m, nil
}

func modeOf(requested []int64) string {
	if len(requested) > 0 {
		return "adhoc"
	}
	return "user"
}

// checkAdHoc 校验临时画像的调用方策略：不同物品数不少于 MinAdHocItems。
func (r *UserCF) checkAdHoc(items []int64) error {
	if len(items) == 0 {
		return nil
	}
	distinct := make(map[int64]struct{}, len(items))
	for _, id := range items {
		distinct[id] = struct{}{}
	}
	if need := r.minAdHocItems(); len(distinct) < need {
		return core.NewDomainError(core.ModuleRecall, core.ErrorCodeInvalidInput,
			fmt.Sprintf("recall.user_cf: ad-hoc profile needs at least %d distinct items, got %d", need, len(distinct)))
	}
	return nil
}

// Recommend 对矩阵中的目标计算推荐结果。
//
// requested 非空时为临时画像模式：在矩阵副本上追加虚拟用户行，
// 排除 requested 中的物品；否则 userID 必须是已存在的行，排除其已交互物品。
// 目标行全 0、用户不存在、矩阵为空时返回空结果。
// 计算过程中的任何 panic 都会被恢复并记录，结果降级为空，从不向调用方抛出。
func (r *UserCF) Recommend(m *matrix.Matrix, userID int64, requested []int64, topN int) (out []Candidate) {
	defer func() {
		if p := recover(); p != nil {
			r.logger().Error().
				Interface("panic", p).
				Int64("user_id", userID).
				Int("requested", len(requested)).
				Msg("recall.user_cf: recommendation aborted")
			metrics.RecordRecommendation(modeOf(requested), metrics.ResultRecovered)
			out = nil
		}
	}()

	if m.Empty() {
		return nil
	}
	if topN <= 0 {
		topN = r.topN()
	}

	work, target := m, userID
	var exclude map[int64]struct{}
	if len(requested) > 0 {
		work, target = m.WithVirtualRow(requested)
		exclude = setOf(requested)
	} else {
		if !m.HasUser(userID) {
			return nil
		}
		exclude = setOf(m.UserItems(userID))
	}
	if work.RowSum(target) == 0 {
		r.logger().Debug().Int64("user_id", target).Msg("recall.user_cf: empty target row")
		return nil
	}

	limit := topN * r.overCollect()
	pool := make([]Candidate, 0, limit)
	seen := make(map[int64]struct{}, limit)
	for _, nb := range RankNeighbors(work, target) {
		if nb.Similarity <= 0 {
			break
		}
		for _, itemID := range work.UserItems(nb.UserID) {
			if _, ok := exclude[itemID]; ok {
				continue
			}
			// 先到先得：已由更靠前的邻居贡献的物品保留原分数
			if _, ok := seen[itemID]; ok {
				continue
			}
			seen[itemID] = struct{}{}
			pool = append(pool, Candidate{ItemID: itemID, Score: nb.Similarity, NeighborID: nb.UserID})
		}
		if len(pool) >= limit {
			break
		}
	}

	return selectTopN(pool, topN)
}

// selectTopN 按分数降序（同分保持贡献顺序）、按物品去重后截取前 n 个。
func selectTopN(pool []Candidate, n int) []Candidate {
	if len(pool) == 0 {
		return nil
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Score > pool[j].Score
	})
	out := make([]Candidate, 0, min(n, len(pool)))
	seen := make(map[int64]struct{}, len(pool))
	for _, c := range pool {
		if len(out) >= n {
			break
		}
		if _, ok := seen[c.ItemID]; ok {
			continue
		}
		seen[c.ItemID] = struct{}{}
		out = append(out, c)
	}
	return out
}

func setOf(ids []int64) map[int64]struct{} {
	s := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (r *UserCF) config() core.RecallConfig {
	if r.Config != nil {
		return r.Config
	}
	return &core.DefaultRecallConfig{}
}

func (r *UserCF) topN() int {
	if r.TopN > 0 {
		return r.TopN
	}
	return r.config().DefaultTopN()
}

func (r *UserCF) overCollect() int {
	if r.OverCollect > 0 {
		return r.OverCollect
	}
	return r.config().DefaultOverCollect()
}

func (r *UserCF) minAdHocItems() int {
	if r.MinAdHocItems > 0 {
		return r.MinAdHocItems
	}
	return r.config().DefaultMinAdHocItems()
}

// Close 关闭实现了 io.Closer 的数据源。
func (r *UserCF) Close() error {
	if c, ok := r.Source.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (r *UserCF) logger() *zerolog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return logging.Nop()
}
