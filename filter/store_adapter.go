package filter

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/rushteam/cfkit/core"
)

// StoreAdapter 将 core.Store 适配为过滤器所需的存储接口。
// 列表以 JSON 数组存放，例如 [101, 205]。
type StoreAdapter struct {
	store core.Store
}

// NewStoreAdapter 创建一个 core.Store 适配器。
func NewStoreAdapter(s core.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// GetBlacklist 从 Store 读取黑名单。
func (a *StoreAdapter) GetBlacklist(ctx context.Context, key string) ([]int64, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetUserBlocks 从 Store 读取用户屏蔽列表。
func (a *StoreAdapter) GetUserBlocks(ctx context.Context, userID int64, keyPrefix string) ([]int64, error) {
	return a.GetBlacklist(ctx, userBlockKey(keyPrefix, userID))
}

var (
	_ BlacklistStore = (*StoreAdapter)(nil)
	_ UserBlockStore = (*StoreAdapter)(nil)
)
