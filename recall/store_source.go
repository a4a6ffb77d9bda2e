package recall

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/rushteam/cfkit/core"
)

// StoreSource 是基于 core.Store 的交互数据源。
// 交互快照以 JSON 数组存放在 {KeyPrefix}:interactions 下，
// 例如 [{"user_id":1,"item_id":10}, ...]。
type StoreSource struct {
	store core.Store

	// KeyPrefix 是存储 key 的前缀，默认 "cf"
	KeyPrefix string

	// OwnsStore 为 true 时 Close 会关闭底层 Store
	OwnsStore bool
}

// NewStoreSource 创建一个基于 core.Store 的交互数据源。
func NewStoreSource(s core.Store, keyPrefix string) *StoreSource {
	if keyPrefix == "" {
		keyPrefix = "cf"
	}
	return &StoreSource{
		store:     s,
		KeyPrefix: keyPrefix,
	}
}

func (a *StoreSource) Name() string {
	return "store:" + a.store.Name()
}

func (a *StoreSource) key() string {
	return a.KeyPrefix + ":interactions"
}

// Interactions 读取交互快照；key 不存在视为没有数据。
func (a *StoreSource) Interactions(ctx context.Context) ([]core.Interaction, error) {
	data, err := a.store.Get(ctx, a.key())
	if err != nil {
		if core.IsStoreNotFound(err) {
			return []core.Interaction{}, nil
		}
		return nil, err
	}

	var result []core.Interaction
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result, nil
}

var _ core.InteractionSource = (*StoreSource)(nil)

// WriteInteractions 辅助函数：把交互快照写入 Store（数据准备/测试用）。
func WriteInteractions(ctx context.Context, src *StoreSource, interactions []core.Interaction) error {
	data, err := json.Marshal(interactions)
	if err != nil {
		return err
	}
	return src.store.Set(ctx, src.key(), data)
}

// Close 在 OwnsStore 时关闭底层 Store。
func (a *StoreSource) Close() error {
	if !a.OwnsStore || a.store == nil {
		return nil
	}
	return a.store.Close()
}
