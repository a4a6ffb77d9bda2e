package core

import "github.com/rushteam/cfkit/pkg/utils"

// RecommendContext 承载一次推荐请求的目标与参数，贯穿整个 Pipeline 透传。
//
// 两种目标：
//   - 已知用户：UserID 为交互数据中已存在的用户，Items 为空
//   - 临时画像：Items 为调用方给出的物品列表（例如"我修过这几门课"），
//     此时忽略 UserID，由推荐器构造虚拟用户行
type RecommendContext struct {
	UserID int64
	Items  []int64

	// TopN 期望返回的推荐数量，<= 0 时使用默认值
	TopN  int
	Scene string

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级上下文参数（供 DSL 过滤等节点读取）
	Params map[string]any
}

// IsAdHoc 是否为临时画像请求。
func (rctx *RecommendContext) IsAdHoc() bool {
	return rctx != nil && len(rctx.Items) > 0
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
