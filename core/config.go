package core

// RecallConfig 是召回相关的配置接口，用于提供默认值。
type RecallConfig interface {
	// DefaultTopN 返回默认的推荐数量
	DefaultTopN() int

	// DefaultOverCollect 返回候选池超额收集倍数（候选池达到 TopN * 倍数即停止遍历邻居）
	DefaultOverCollect() int

	// DefaultMinAdHocItems 返回临时画像请求至少需要的物品数
	DefaultMinAdHocItems() int
}

// DefaultRecallConfig 是默认的召回配置实现。
type DefaultRecallConfig struct{}

func (c *DefaultRecallConfig) DefaultTopN() int {
	return 5
}

func (c *DefaultRecallConfig) DefaultOverCollect() int {
	return 2
}

func (c *DefaultRecallConfig) DefaultMinAdHocItems() int {
	return 2
}
