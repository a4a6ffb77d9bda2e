// Package config 维护 Node 类型注册表，把 pipeline YAML 中的 type 映射到构建器。
//
// 内置 Node 在 config/builders 的 init 中注册，入口处需要：
//
//	import _ "github.com/rushteam/cfkit/config/builders"
package config

import (
	"fmt"
	"slices"
	"sync"

	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/pipeline"
)

// NodeBuilder 与 pipeline.NodeBuilder 一致。
type NodeBuilder = pipeline.NodeBuilder

type registry struct {
	mu       sync.RWMutex
	builders map[string]NodeBuilder
}

var defaultRegistry = &registry{builders: make(map[string]NodeBuilder)}

// Register 注册一种 Node 的构建器，同名覆盖；空名或 nil 构建器被忽略。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultRegistry.mu.Lock()
	defaultRegistry.builders[typeName] = builder
	defaultRegistry.mu.Unlock()
}

func lookup(typeName string) bool {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()
	_, ok := defaultRegistry.builders[typeName]
	return ok
}

// SupportedTypes 返回已注册的 Node 类型（排序）。
func SupportedTypes() []string {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()
	types := make([]string, 0, len(defaultRegistry.builders))
	for t := range defaultRegistry.builders {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// DefaultFactory 用当前注册表的快照构建 NodeFactory。
func DefaultFactory() *pipeline.NodeFactory {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range defaultRegistry.builders {
		f.Register(typeName, builder)
	}
	return f
}

// ValidatePipelineConfig 在构建前检查配置：至少一个节点，且每个节点类型都已注册。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, "nil pipeline config")
	}
	if len(cfg.Pipeline.Nodes) == 0 {
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, "pipeline has no nodes")
	}
	for i, nc := range cfg.Pipeline.Nodes {
		if nc.Type == "" {
			return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput,
				fmt.Sprintf("node[%d] has no type", i))
		}
		if !lookup(nc.Type) {
			return core.NewDomainError(core.ModuleConfig, core.ErrorCodeNotSupported,
				fmt.Sprintf("node[%d]: unsupported type %q (supported: %v)", i, nc.Type, SupportedTypes()))
		}
	}
	return nil
}
