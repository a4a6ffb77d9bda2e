package recall

import (
	"context"
	"fmt"
	"sort"

	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/postprocess"
)

// ItemCount 是一门课程的热度：选过它的不同用户数。
type ItemCount struct {
	ItemID int64
	Count  int
}

// DepartmentCount 是一个院系的选课总数。
type DepartmentCount struct {
	Department string
	Count      int
}

// CountItems 把交互快照聚合为每个物品的热度，按 Count 降序，相同时按物品 ID 升序。
// 重复的 (用户, 物品) 记录只计一次，与矩阵构建的去重口径一致。
func CountItems(interactions []core.Interaction) []ItemCount {
	pairs := make(map[core.Interaction]struct{}, len(interactions))
	counts := make(map[int64]int)
	for _, in := range interactions {
		if _, dup := pairs[in]; dup {
			continue
		}
		pairs[in] = struct{}{}
		counts[in.ItemID]++
	}

	out := make([]ItemCount, 0, len(counts))
	for id, c := range counts {
		out = append(out, ItemCount{ItemID: id, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}

// CountDepartments 按 departments（物品 → 院系）汇总物品热度，
// 按 Count 降序，相同时按院系名升序。没有院系的物品不计入。
func CountDepartments(items []ItemCount, departments map[int64]string) []DepartmentCount {
	sums := make(map[string]int)
	for _, ic := range items {
		if d, ok := departments[ic.ItemID]; ok && d != "" {
			sums[d] += ic.Count
		}
	}

	out := make([]DepartmentCount, 0, len(sums))
	for d, c := range sums {
		out = append(out, DepartmentCount{Department: d, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Department < out[j].Department
	})
	return out
}

// DepartmentTrends 读取一次交互快照，经目录 Store 把课程映射到院系，
// 返回各院系的选课热度排行。field 为目录记录中的院系字段，默认 "department"。
func DepartmentTrends(
	ctx context.Context,
	src core.InteractionSource,
	catalog core.Store,
	keyPrefix, field string,
) ([]DepartmentCount, error) {
	if src == nil || catalog == nil {
		return nil, core.NewDomainError(core.ModuleRecall, core.ErrorCodeInvalidInput,
			"trends: interaction source and catalog store are required")
	}
	if field == "" {
		field = "department"
	}

	interactions, err := src.Interactions(ctx)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleSource, core.ErrorCodeUnavailable,
			"trends: load interactions from "+src.Name(), err)
	}
	items := CountItems(interactions)

	ids := make([]int64, 0, len(items))
	for _, ic := range items {
		ids = append(ids, ic.ItemID)
	}
	records, _, err := postprocess.LoadCatalog(ctx, catalog, keyPrefix, ids)
	if err != nil {
		return nil, err
	}

	departments := make(map[int64]string, len(records))
	for id, rec := range records {
		switch v := rec[field].(type) {
		case nil:
		case string:
			departments[id] = v
		default:
			departments[id] = fmt.Sprint(v)
		}
	}
	return CountDepartments(items, departments), nil
}
