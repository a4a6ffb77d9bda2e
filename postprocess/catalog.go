// Package postprocess 提供推荐结果的后处理节点，例如把物品 ID 解析为可展示的目录信息。
package postprocess

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/pipeline"
)

// CatalogNode 从 Store 中批量读取物品目录记录（如课程标题、院系、学分），
// 写入 Item.Meta。记录以 JSON 对象形式存储在 {KeyPrefix}:{itemID} 下。
//
// 只补充信息，不改变物品的顺序与集合；缺失或无法解析的记录保持原样。
type CatalogNode struct {
	Store core.Store

	// KeyPrefix 默认 "catalog"
	KeyPrefix string

	// Fields 只复制这些字段，为空时复制全部
	Fields []string

	Logger *zerolog.Logger
}

func (n *CatalogNode) Name() string                { return "postprocess.catalog" }
func (n *CatalogNode) Kind() pipeline.Kind         { return pipeline.KindPostProcess }
func (n *CatalogNode) SetLogger(l *zerolog.Logger) { n.Logger = l }

// Close 关闭目录 Store。
func (n *CatalogNode) Close() error {
	if n.Store == nil {
		return nil
	}
	return n.Store.Close()
}

func (n *CatalogNode) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Store == nil || len(items) == 0 {
		return items, nil
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if it != nil {
			ids = append(ids, it.ID)
		}
	}
	records, bad, err := LoadCatalog(ctx, n.Store, n.KeyPrefix, ids)
	if err != nil {
		return nil, err
	}
	if n.Logger != nil {
		for id, err := range bad {
			n.Logger.Warn().Err(err).Int64("item_id", id).Msg("catalog record is not a json object")
		}
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		if rec, ok := records[it.ID]; ok {
			n.apply(it, rec)
		}
	}
	return items, nil
}

func (n *CatalogNode) apply(it *core.Item, rec map[string]any) {
	if len(n.Fields) == 0 {
		for k, v := range rec {
			it.PutMeta(k, v)
		}
		return
	}
	for _, k := range n.Fields {
		if v, ok := rec[k]; ok {
			it.PutMeta(k, v)
		}
	}
}

// CatalogKey 返回目录记录的存储 key：{keyPrefix}:{id}，keyPrefix 为空时用 "catalog"。
func CatalogKey(keyPrefix string, id int64) string {
	if keyPrefix == "" {
		keyPrefix = "catalog"
	}
	return keyPrefix + ":" + strconv.FormatInt(id, 10)
}

// LoadCatalog 批量读取 ids 对应的目录记录。
// 缺失的记录不出现在结果中；无法解析的记录放入 bad，由调用方决定是否告警。
// 只有 Store 本身出错时返回 error（UNAVAILABLE）。
func LoadCatalog(
	ctx context.Context,
	s core.Store,
	keyPrefix string,
	ids []int64,
) (records map[int64]map[string]any, bad map[int64]error, err error) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, CatalogKey(keyPrefix, id))
	}
	raw, err := s.BatchGet(ctx, keys)
	if err != nil {
		return nil, nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable,
			fmt.Sprintf("catalog: batch get %d keys", len(keys)), err)
	}

	records = make(map[int64]map[string]any, len(raw))
	for _, id := range ids {
		data, ok := raw[CatalogKey(keyPrefix, id)]
		if !ok {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal(data, &rec); err != nil {
			if bad == nil {
				bad = make(map[int64]error)
			}
			bad[id] = err
			continue
		}
		records[id] = rec
	}
	return records, bad, nil
}

// WriteCatalog 把目录记录写入 Store，供 CatalogNode 读取。
func WriteCatalog(ctx context.Context, s core.Store, keyPrefix string, records map[int64]map[string]any) error {
	kvs := make(map[string][]byte, len(records))
	for id, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal catalog %d: %w", id, err)
		}
		kvs[CatalogKey(keyPrefix, id)] = data
	}
	return s.BatchSet(ctx, kvs)
}
