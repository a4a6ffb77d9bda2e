package rerank

import (
	"context"

	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/pipeline"
)

// Diversity 按分组限制同组物品数量（保留排序靠前的），例如同一院系的课程最多 2 门。
// 分组来源优先级：
// - label[LabelKey].Value
// - meta[LabelKey] (string)
// 没有分组信息的物品总是保留。
type Diversity struct {
	LabelKey    string // 默认 "department"
	MaxPerGroup int    // 默认 1
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.LabelKey
	if key == "" {
		key = "department"
	}
	limit := n.MaxPerGroup
	if limit <= 0 {
		limit = 1
	}

	count := make(map[string]int, 32)
	out := make([]*core.Item, 0, len(items))

	for _, it := range items {
		if it == nil {
			continue
		}

		group := ""
		if lbl, ok := it.Labels[key]; ok {
			group = lbl.Value
		}
		if group == "" {
			if s, ok := it.Meta[key].(string); ok {
				group = s
			}
		}

		if group == "" {
			out = append(out, it)
			continue
		}
		if count[group] >= limit {
			continue
		}
		count[group]++
		out = append(out, it)
	}

	return out, nil
}
