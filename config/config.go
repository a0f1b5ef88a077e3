// Package config 提供配置驱动的引擎组装：从 YAML 读取各策略的参数与
// 规则重排表，构建出可直接使用的 engine.Engine。
// 未出现的配置项一律回落到 core 中的缺省值，空配置文件也能得到可用引擎。
package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/engine"
	"github.com/rushteam/feedkit/pipeline"
	"github.com/rushteam/feedkit/pkg/conv"
	"github.com/rushteam/feedkit/recall"
	"github.com/rushteam/feedkit/rerank"
	"github.com/rushteam/feedkit/session"
)

// Config 是引擎配置文件的根结构（YAML）。
// Engine 小节驱动 Build 的成品引擎装配；Pipeline 小节是配置驱动模式，
// 按注册表逐节点构建链路（见 registry.go），两者可以只用其一。
type Config struct {
	Engine   EngineConfig `yaml:"engine"`
	Pipeline PipelineSpec `yaml:"pipeline"`
}

// BuildPipeline 按 Pipeline 小节构建 Node 链。
func (c *Config) BuildPipeline(deps Deps) (*pipeline.Pipeline, error) {
	return BuildPipeline(c.Pipeline, deps)
}

// EngineConfig 描述一套引擎的全部可调参数。
// 各策略的参数块保持 map 形态，与取数逻辑解耦：新增参数不需要动结构体。
type EngineConfig struct {
	// StrategyTimeout 单路策略超时（秒）
	StrategyTimeout int64 `yaml:"strategy_timeout"`

	// OverFetch 混合时每路的超额拉取倍数
	OverFetch int64 `yaml:"over_fetch"`

	// Weights 各策略配额权重，缺省 0.4/0.3/0.2/0.1
	Weights map[string]any `yaml:"weights"`

	Collaborative map[string]any `yaml:"collaborative"`
	Content       map[string]any `yaml:"content"`
	Trending      map[string]any `yaml:"trending"`
	ColdStart     map[string]any `yaml:"coldstart"`
	Diversity     map[string]any `yaml:"diversity"`
	Session       map[string]any `yaml:"session"`
	Explore       map[string]any `yaml:"explore"`

	// Rules 规则重排表，按序求值
	Rules []rerank.Rule `yaml:"rules"`
}

// Load 从 YAML 文件加载配置。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Parse(data)
}

// Parse 解析 YAML 配置内容。
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &cfg, nil
}

// Deps 是 Build 所需的外部依赖：内容库、信号库与缓存是必需的，
// Contexts 与 Logger 可选。
type Deps struct {
	Content  core.ContentStore
	Signals  core.SignalStore
	Cache    core.Store
	Contexts engine.ContextProvider
	Logger   *zap.Logger
}

// Build 按配置组装引擎。规则表达式在此处编译，非法表达式立即报错。
func (c *Config) Build(deps Deps) (*engine.Engine, error) {
	if deps.Content == nil || deps.Signals == nil || deps.Cache == nil {
		return nil, fmt.Errorf("config: content/signals/cache are required")
	}

	ec := c.Engine

	sessions := newSessions(ec.Session, deps.Cache)

	tracker := session.NewTracker(sessions)
	tracker.Async = conv.ConfigGet[bool](ec.Session, "async_track", false)
	tracker.Logger = deps.Logger

	trending := newTrending(ec.Trending, deps)
	blender := newBlender(ec, deps, sessions, trending)

	eng := &engine.Engine{
		Signals:  deps.Signals,
		Content:  deps.Content,
		Sessions: sessions,
		Tracker:  tracker,
		Blender:  blender,
		ColdStart: &recall.ColdStartSource{
			Content:      deps.Content,
			MinViewCount: conv.ConfigGetInt64(ec.ColdStart, "min_view_count", 0),
		},
		Trending: trending,
		Contexts: deps.Contexts,
		Logger:   deps.Logger,
	}

	if conv.ConfigGet[bool](ec.Explore, "enabled", false) {
		explore := &rerank.ExploreExploit{}
		if ratio, ok := conv.ToFloat64(ec.Explore["exploit_ratio"]); ok {
			explore.ExploitRatio = ratio
		}
		eng.Explore = explore
	}

	if len(ec.Rules) > 0 {
		rules, err := rerank.NewRuleNode(ec.Rules)
		if err != nil {
			return nil, fmt.Errorf("build rules: %w", err)
		}
		eng.Rules = rules
	}

	return eng, nil
}

// 以下构造函数同时服务 Build 与配置驱动的 Node 注册表（registry.go）：
// 参数块保持 map 形态，两条装配路径读同一套键。

func newSessions(m map[string]any, cache core.Store) *session.Cache {
	sessions := session.NewCache(cache)
	if ttl := conv.ConfigGetInt64(m, "ttl", 0); ttl > 0 {
		sessions.TTL = time.Duration(ttl) * time.Second
	}
	if prefix := conv.ConfigGet[string](m, "key_prefix", ""); prefix != "" {
		sessions.KeyPrefix = prefix
	}
	return sessions
}

func newCollaborative(m map[string]any, deps Deps, sessions *session.Cache) *recall.CollaborativeSource {
	src := &recall.CollaborativeSource{
		Signals:       deps.Signals,
		Content:       deps.Content,
		Sessions:      sessions,
		HistoryWindow: int(conv.ConfigGetInt64(m, "history_window", 0)),
		MaxNeighbors:  int(conv.ConfigGetInt64(m, "max_neighbors", 0)),
		Weighted:      conv.ConfigGet[bool](m, "weighted", false),
	}
	if sim, ok := conv.ToFloat64(m["min_similarity"]); ok {
		src.MinSimilarity = sim
	}
	return src
}

func newContentBased(m map[string]any, deps Deps, sessions *session.Cache) *recall.ContentBasedSource {
	return &recall.ContentBasedSource{
		Signals:       deps.Signals,
		Content:       deps.Content,
		Sessions:      sessions,
		RecentSignals: int(conv.ConfigGetInt64(m, "recent_signals", 0)),
		HistoryWindow: int(conv.ConfigGetInt64(m, "history_window", 0)),
	}
}

func newTrending(m map[string]any, deps Deps) *recall.TrendingSource {
	trending := &recall.TrendingSource{
		Content:      deps.Content,
		Cache:        deps.Cache,
		Period:       recall.Period(conv.ConfigGet[string](m, "period", "")),
		SnapshotSize: int(conv.ConfigGetInt64(m, "snapshot_size", 0)),
	}
	if prefix := conv.ConfigGet[string](m, "key_prefix", ""); prefix != "" {
		trending.KeyPrefix = prefix
	}
	return trending
}

func newDiversity(m map[string]any, deps Deps, sessions *session.Cache) *recall.DiversitySource {
	return &recall.DiversitySource{
		Signals:       deps.Signals,
		Content:       deps.Content,
		Sessions:      sessions,
		RecentSignals: int(conv.ConfigGetInt64(m, "recent_signals", 0)),
		HistoryWindow: int(conv.ConfigGetInt64(m, "history_window", 0)),
		OverFetch:     int(conv.ConfigGetInt64(m, "over_fetch", 0)),
	}
}

func newBlender(ec EngineConfig, deps Deps, sessions *session.Cache, trending *recall.TrendingSource) *recall.Blender {
	blender := &recall.Blender{
		Sources: []recall.Source{
			newCollaborative(ec.Collaborative, deps, sessions),
			newContentBased(ec.Content, deps, sessions),
			trending,
			newDiversity(ec.Diversity, deps, sessions),
		},
		Weights:   weightsFrom(ec.Weights),
		OverFetch: int(ec.OverFetch),
		Logger:    deps.Logger,
	}
	if ec.StrategyTimeout > 0 {
		blender.Timeout = time.Duration(ec.StrategyTimeout) * time.Second
	}
	return blender
}

// weightsFrom 按固定顺序（协同/内容/热度/多样性）读出权重；
// 任一缺失则整体回落到缺省配比，避免半配置状态。
func weightsFrom(w map[string]any) []float64 {
	if w == nil {
		return nil
	}
	keys := []string{"collaborative", "content", "trending", "diversity"}
	out := make([]float64, 0, len(keys))
	for _, k := range keys {
		v, ok := conv.ToFloat64(w[k])
		if !ok {
			return nil
		}
		out = append(out, v)
	}
	return out
}
