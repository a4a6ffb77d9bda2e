package filter

import (
	"context"
	"slices"
	"strconv"

	"github.com/rushteam/cfkit/core"
)

// UserBlockFilter 是用户屏蔽过滤器，过滤掉用户明确不想要的物品
// （例如学生标记为"不感兴趣"的课程）。临时画像请求没有真实用户，不做过滤。
type UserBlockFilter struct {
	// Store 用于从存储中读取用户屏蔽列表
	Store UserBlockStore

	// KeyPrefix 是 Store 中的 key 前缀，实际 key 为 {KeyPrefix}:{UserID}
	KeyPrefix string
}

// UserBlockStore 是用户屏蔽存储接口。
type UserBlockStore interface {
	// GetUserBlocks 获取用户屏蔽的物品 ID 列表
	GetUserBlocks(ctx context.Context, userID int64, keyPrefix string) ([]int64, error)
}

// NewUserBlockFilter 创建一个用户屏蔽过滤器。
func NewUserBlockFilter(storeAdapter *StoreAdapter, keyPrefix string) *UserBlockFilter {
	var store UserBlockStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &UserBlockFilter{
		Store:     store,
		KeyPrefix: keyPrefix,
	}
}

func (f *UserBlockFilter) Name() string {
	return "filter.user_block"
}

func (f *UserBlockFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil || rctx.IsAdHoc() || f.Store == nil {
		return false, nil
	}

	keyPrefix := f.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "user:block"
	}

	blockedIDs, err := f.Store.GetUserBlocks(ctx, rctx.UserID, keyPrefix)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return slices.Contains(blockedIDs, item.ID), nil
}

func userBlockKey(keyPrefix string, userID int64) string {
	return keyPrefix + ":" + strconv.FormatInt(userID, 10)
}
