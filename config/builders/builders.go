// Package builders 注册内置 Node 的配置构建器。
//
// 使用方式：在入口处 import _ "github.com/rushteam/cfkit/config/builders"。
package builders

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/cfkit/config"
	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/filter"
	"github.com/rushteam/cfkit/pipeline"
	"github.com/rushteam/cfkit/pkg/conv"
	"github.com/rushteam/cfkit/postprocess"
	"github.com/rushteam/cfkit/recall"
	"github.com/rushteam/cfkit/rerank"
	"github.com/rushteam/cfkit/store"
)

// ConnectTimeout 连接外部存储（Redis / Postgres）时的超时。
var ConnectTimeout = 5 * time.Second

func init() {
	config.Register("recall.user_cf", BuildUserCFNode)
	config.Register("recall.hot", BuildHotNode)
	config.Register("filter", BuildFilterNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("postprocess.catalog", BuildCatalogNode)
}

// BuildUserCFNode 构建 recall.user_cf：
//
//	type: recall.user_cf
//	config:
//	  top_n: 5
//	  over_collect: 2
//	  min_adhoc_items: 2
//	  source:
//	    type: static            # static / redis / postgres
//	    interactions: [[1, 101], [1, 102]]
//
// redis / postgres 数据源默认带熔断，见 withBreaker。
func BuildUserCFNode(cfg map[string]any) (pipeline.Node, error) {
	srcCfg, ok := cfg["source"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("source not found or invalid")
	}
	src, err := buildSource(srcCfg)
	if err != nil {
		return nil, err
	}
	return &recall.UserCF{
		Source:        src,
		TopN:          int(conv.ConfigGetInt64(cfg, "top_n", 0)),
		OverCollect:   int(conv.ConfigGetInt64(cfg, "over_collect", 0)),
		MinAdHocItems: int(conv.ConfigGetInt64(cfg, "min_adhoc_items", 0)),
	}, nil
}

// BuildHotNode 构建 recall.hot：
//
//	type: recall.hot
//	config:
//	  top_n: 5
//	  source: {type: static, interactions: [[1, 101]]}   # 同 recall.user_cf
//	  catalog:                                           # 可选，院系热度排行使用
//	    key_prefix: catalog
//	    department_field: department
//	    records: [{id: 101, department: "CSE"}]
func BuildHotNode(cfg map[string]any) (pipeline.Node, error) {
	srcCfg, ok := cfg["source"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("source not found or invalid")
	}
	src, err := buildSource(srcCfg)
	if err != nil {
		return nil, err
	}
	node := &recall.Hot{
		Source: src,
		TopN:   int(conv.ConfigGetInt64(cfg, "top_n", 0)),
	}
	if catCfg, ok := cfg["catalog"].(map[string]any); ok {
		s, keyPrefix, err := buildCatalog(catCfg)
		if err != nil {
			_ = node.Close()
			return nil, err
		}
		node.Catalog = s
		node.CatalogPrefix = keyPrefix
		node.DepartmentField = conv.ConfigGet(catCfg, "department_field", "")
	}
	return node, nil
}

func buildSource(cfg map[string]any) (core.InteractionSource, error) {
	switch t := conv.ConfigGet(cfg, "type", ""); t {
	case "static":
		records, err := parseInteractions(cfg["interactions"])
		if err != nil {
			return nil, err
		}
		return &recall.StaticSource{Records: records}, nil

	case "redis":
		s, err := buildStore(cfg)
		if err != nil {
			return nil, err
		}
		src := recall.NewStoreSource(s, conv.ConfigGet(cfg, "key_prefix", ""))
		src.OwnsStore = true
		return withBreaker(src, cfg), nil

	case "postgres":
		dsn := conv.ConfigGet(cfg, "dsn", "")
		if dsn == "" {
			return nil, fmt.Errorf("postgres source: dsn not found")
		}
		ctx, cancel := context.WithTimeout(context.Background(), ConnectTimeout)
		defer cancel()
		src, err := store.OpenPostgresSource(ctx, dsn, store.PostgresOptions{
			Table:      conv.ConfigGet(cfg, "table", ""),
			UserColumn: conv.ConfigGet(cfg, "user_column", ""),
			ItemColumn: conv.ConfigGet(cfg, "item_column", ""),
		})
		if err != nil {
			return nil, err
		}
		return withBreaker(src, cfg), nil

	default:
		return nil, fmt.Errorf("unknown source type: %q", t)
	}
}

// withBreaker 为外部数据源加熔断；breaker: {failure_threshold: 5, timeout_sec: 30}，
// breaker.disabled 为 true 时不加。
func withBreaker(src core.InteractionSource, cfg map[string]any) core.InteractionSource {
	bc, _ := cfg["breaker"].(map[string]any)
	if conv.ConfigGet(bc, "disabled", false) {
		return src
	}
	return store.NewBreakerSource(src, store.BreakerConfig{
		FailureThreshold: uint32(conv.ConfigGetInt64(bc, "failure_threshold", 0)),
		Timeout:          time.Duration(conv.ConfigGetInt64(bc, "timeout_sec", 0)) * time.Second,
	})
}

// parseInteractions 解析 [[user, item], ...] 形式的内联交互记录。
func parseInteractions(v any) ([]core.Interaction, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("static source: interactions must be a list of [user, item] pairs")
	}
	out := make([]core.Interaction, 0, len(raw))
	for i, e := range raw {
		ids := conv.SliceAnyToInt64(e)
		if len(ids) != 2 {
			return nil, fmt.Errorf("static source: interactions[%d] must be [user, item]", i)
		}
		out = append(out, core.Interaction{UserID: ids[0], ItemID: ids[1]})
	}
	return out, nil
}

// buildStore 根据 type 构建 KV 存储（memory / redis）。
func buildStore(cfg map[string]any) (core.Store, error) {
	switch t := conv.ConfigGet(cfg, "type", "memory"); t {
	case "memory":
		return store.NewMemoryStore(), nil
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), ConnectTimeout)
		defer cancel()
		return store.NewRedisStore(ctx,
			conv.ConfigGet(cfg, "addr", "localhost:6379"),
			conv.ConfigGet(cfg, "password", ""),
			int(conv.ConfigGetInt64(cfg, "db", 0)),
		)
	default:
		return nil, fmt.Errorf("unknown store type: %q", t)
	}
}

// BuildFilterNode 构建 filter：
//
//	type: filter
//	config:
//	  store: {type: redis, addr: "localhost:6379"}   # 可选，blacklist.key / user_block 需要
//	  filters:
//	    - {type: blacklist, item_ids: [103]}
//	    - {type: user_block, key_prefix: "user:block"}
//	    - {type: expr, expr: "item.score < 0.2"}
func BuildFilterNode(cfg map[string]any) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]any)
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	node := &filter.FilterNode{}
	var adapter *filter.StoreAdapter
	if storeCfg, ok := cfg["store"].(map[string]any); ok {
		s, err := buildStore(storeCfg)
		if err != nil {
			return nil, err
		}
		adapter = filter.NewStoreAdapter(s)
		node.Store = s
	}
	fail := func(err error) (pipeline.Node, error) {
		_ = node.Close()
		return nil, err
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		switch filterType := conv.ConfigGet(filterMap, "type", ""); filterType {
		case "blacklist":
			ids := conv.SliceAnyToInt64(filterMap["item_ids"])
			key := conv.ConfigGet(filterMap, "key", "")
			filters = append(filters, filter.NewBlacklistFilter(ids, adapter, key))

		case "user_block":
			if adapter == nil {
				return fail(fmt.Errorf("user_block filter requires store"))
			}
			keyPrefix := conv.ConfigGet(filterMap, "key_prefix", "")
			filters = append(filters, filter.NewUserBlockFilter(adapter, keyPrefix))

		case "expr":
			f, err := filter.NewExprFilter(conv.ConfigGet(filterMap, "expr", ""))
			if err != nil {
				return fail(err)
			}
			filters = append(filters, f)

		default:
			return fail(fmt.Errorf("unknown filter type: %s", filterType))
		}
	}

	node.Filters = filters
	return node, nil
}

func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}

func BuildDiversityNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.Diversity{
		LabelKey:    conv.ConfigGet(cfg, "label_key", "department"),
		MaxPerGroup: int(conv.ConfigGetInt64(cfg, "max_per_group", 1)),
	}, nil
}

// BuildCatalogNode 构建 postprocess.catalog：
//
//	type: postprocess.catalog
//	config:
//	  key_prefix: catalog
//	  fields: [title, department, credits]
//	  store: {type: memory}
//	  records:                 # 仅 memory 存储：内联目录
//	    - {id: 101, title: "Algorithms", department: "CSE"}
func BuildCatalogNode(cfg map[string]any) (pipeline.Node, error) {
	s, keyPrefix, err := buildCatalog(cfg)
	if err != nil {
		return nil, err
	}
	return &postprocess.CatalogNode{
		Store:     s,
		KeyPrefix: keyPrefix,
		Fields:    conv.SliceAnyToString(cfg["fields"]),
	}, nil
}

// buildCatalog 构建目录存储并写入内联 records，返回存储与 key 前缀。
func buildCatalog(cfg map[string]any) (core.Store, string, error) {
	storeCfg, _ := cfg["store"].(map[string]any)
	s, err := buildStore(storeCfg)
	if err != nil {
		return nil, "", err
	}
	keyPrefix := conv.ConfigGet(cfg, "key_prefix", "")

	raw, ok := cfg["records"].([]any)
	if !ok {
		return s, keyPrefix, nil
	}
	records, err := parseCatalogRecords(raw)
	if err == nil {
		err = postprocess.WriteCatalog(context.Background(), s, keyPrefix, records)
	}
	if err != nil {
		_ = s.Close()
		return nil, "", err
	}
	return s, keyPrefix, nil
}

// parseCatalogRecords 解析 [{id: 101, ...}] 形式的内联目录；id 必须存在且为整数，0 也合法。
func parseCatalogRecords(raw []any) (map[int64]map[string]any, error) {
	records := make(map[int64]map[string]any, len(raw))
	for i, r := range raw {
		rec, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("catalog: records[%d] must be a mapping", i)
		}
		v, ok := rec["id"]
		if !ok {
			return nil, fmt.Errorf("catalog: records[%d] has no id", i)
		}
		id, ok := conv.ToInt64(v)
		if !ok {
			return nil, fmt.Errorf("catalog: records[%d] id %v is not an integer", i, v)
		}
		records[id] = rec
	}
	return records, nil
}
