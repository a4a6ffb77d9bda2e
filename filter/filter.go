package filter

import (
	"context"

	"github.com/rushteam/cfkit/core"
)

// Filter 判断一门候选课程是否应从推荐结果中剔除，例如已停开、被用户屏蔽，
// 或协同过滤分数过低的课程。ShouldFilter 返回 true 表示剔除。
//
// 出错时 FilterNode 会跳过该过滤器并保留课程，实现方不必自行兜底。
type Filter interface {
	Name() string

	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}
