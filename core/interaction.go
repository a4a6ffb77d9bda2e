package core

import "context"

// Interaction 是一条用户-物品交互记录（例如一次选课）。
// 只表达"发生过交互"，不携带评分或权重；重复记录在矩阵中合并为 1。
type Interaction struct {
	UserID int64 `json:"user_id"`
	ItemID int64 `json:"item_id"`
}

// InteractionSource 是交互数据的只读数据源。
//
// 设计原则：
//   - 每次调用返回当前全部交互记录的快照，推荐器不会回写
//   - 定义在领域层（core），由 recall / store 包实现
//
// 实现：
//   - recall.StaticSource：内存切片
//   - recall.StoreSource：基于 core.Store（Memory / Redis）
//   - store.PostgresSource：关系型数据库中的选课表
type InteractionSource interface {
	// Name 返回数据源名称（用于日志/监控）
	Name() string

	// Interactions 读取全部交互记录
	Interactions(ctx context.Context) ([]Interaction, error)
}
