package core

import "github.com/rushteam/cfkit/pkg/utils"

// Item 是推荐链路中的统一承载结构：物品 ID、分数、元信息、标签。
// Score 为贡献该物品的邻居相似度；Meta 由后处理（如课程目录）补充展示字段。
type Item struct {
	ID     int64
	Score  float64
	Meta   map[string]any
	Labels map[string]utils.Label
}

func NewItem(id int64) *Item {
	return &Item{
		ID:     id,
		Score:  0,
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// PutMeta 写入展示用元信息。
func (it *Item) PutMeta(key string, value any) {
	if it.Meta == nil {
		it.Meta = make(map[string]any)
	}
	it.Meta[key] = value
}
