package recall

import (
	"context"
	"slices"

	"github.com/rushteam/cfkit/core"
)

// StaticSource 是内存中的交互数据源，用于测试/原型/配置内联数据。
type StaticSource struct {
	Records []core.Interaction
}

func (s *StaticSource) Name() string { return "static" }

// Interactions 返回记录的副本，调用方修改不影响数据源。
func (s *StaticSource) Interactions(_ context.Context) ([]core.Interaction, error) {
	return slices.Clone(s.Records), nil
}

var _ core.InteractionSource = (*StaticSource)(nil)
