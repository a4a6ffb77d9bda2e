// Package store 提供 core.Store 的实现以及关系型数据库交互数据源。
//
// 注意：此包只包含实现，接口定义在 core 包。
//
// 示例：
//
//	var kv core.Store = store.NewMemoryStore()
//	var src core.InteractionSource = store.NewPostgresSource(pool, store.PostgresOptions{})
package store
