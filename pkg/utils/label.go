// Package utils 提供推荐链路中通用的小工具类型。
package utils

import "strings"

// Label 记录物品或请求在链路中被打上的标记，用于解释结果来源（如召回方式、
// 贡献邻居、过滤原因）。Source 标记写入它的阶段：recall / filter / postprocess。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"`
}

const (
	valueSep  = "|"
	sourceSep = ","
)

// MergeLabel 合并同名 Label：Value 以 '|' 累积，Source 以 ',' 累积，
// 已经出现过的值不会重复追加，因此同一节点重复打标是幂等的。
func MergeLabel(existing, incoming Label) Label {
	return Label{
		Value:  appendUnique(existing.Value, incoming.Value, valueSep),
		Source: appendUnique(existing.Source, incoming.Source, sourceSep),
	}
}

// Values 返回累积的全部值。
func (l Label) Values() []string {
	if l.Value == "" {
		return nil
	}
	return strings.Split(l.Value, valueSep)
}

// Has 判断是否包含某个值。
func (l Label) Has(v string) bool {
	for _, s := range l.Values() {
		if s == v {
			return true
		}
	}
	return false
}

func appendUnique(acc, v, sep string) string {
	switch {
	case v == "":
		return acc
	case acc == "":
		return v
	}
	for _, s := range strings.Split(acc, sep) {
		if s == v {
			return acc
		}
	}
	return acc + sep + v
}
