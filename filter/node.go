package filter

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/pipeline"
	"github.com/rushteam/cfkit/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该物品就会被过滤掉；过滤器出错时跳过该过滤器。
type FilterNode struct {
	Filters []Filter
	Logger  *zerolog.Logger

	// Store 是过滤器共用的存储，Close 时关闭（可选）
	Store io.Closer
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) SetLogger(l *zerolog.Logger) {
	n.Logger = l
}

func (n *FilterNode) Close() error {
	if n.Store == nil {
		return nil
	}
	return n.Store.Close()
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		reason := ""
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				if n.Logger != nil {
					n.Logger.Warn().Err(err).Str("filter", f.Name()).Int64("item_id", item.ID).Msg("filter failed, skipped")
				}
				continue
			}
			if ok {
				reason = f.Name()
				break
			}
		}

		if reason != "" {
			item.PutLabel("filtered", utils.Label{Value: "true", Source: reason})
			continue
		}
		out = append(out, item)
	}

	return out, nil
}
