package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/feedkit/pipeline"
)

// NodeBuilder 根据参数块与外部依赖构建一个 pipeline.Node。
// 各组件通过 Register(typeName, builder) 接入配置驱动模式。
type NodeBuilder func(params map[string]any, deps Deps) (pipeline.Node, error)

var (
	defaultBuilders   = make(map[string]NodeBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种 Node 的构建逻辑。内置节点在本包 init 中注册，
// 扩展节点建议在各自组件的 init 中调用。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes 返回当前已注册的 Node 类型列表（排序），用于错误提示与校验。
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func lookupBuilder(typeName string) (NodeBuilder, bool) {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	b, ok := defaultBuilders[typeName]
	return b, ok
}

// NodeConfig 是 pipeline 配置中的一个节点声明。
type NodeConfig struct {
	Type   string         `yaml:"type"`
	Params map[string]any `yaml:"params"`
}

// PipelineSpec 是配置驱动模式的链路声明：按序列出各节点。
type PipelineSpec struct {
	Nodes []NodeConfig `yaml:"nodes"`
}

// BuildPipeline 按声明构建 Node 链。未注册的类型会连同已支持列表一起报错。
func BuildPipeline(spec PipelineSpec, deps Deps) (*pipeline.Pipeline, error) {
	if deps.Content == nil || deps.Signals == nil || deps.Cache == nil {
		return nil, fmt.Errorf("config: content/signals/cache are required")
	}

	nodes := make([]pipeline.Node, 0, len(spec.Nodes))
	for i, nc := range spec.Nodes {
		if nc.Type == "" {
			return nil, fmt.Errorf("config: node %d has no type", i)
		}
		builder, ok := lookupBuilder(nc.Type)
		if !ok {
			return nil, fmt.Errorf("config: unsupported node type %q (supported: %v)", nc.Type, SupportedTypes())
		}
		node, err := builder(nc.Params, deps)
		if err != nil {
			return nil, fmt.Errorf("config: build node %q: %w", nc.Type, err)
		}
		nodes = append(nodes, node)
	}
	return &pipeline.Pipeline{Nodes: nodes}, nil
}
