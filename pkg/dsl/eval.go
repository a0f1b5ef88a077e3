// Package dsl 是规则重排的表达式层，使用 CEL (Common Expression Language) 实现。
// CEL 是 Google 开发的表达式语言，类型安全、高性能、线程安全。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/feedkit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("candidate", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("ctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是一条编译好的布尔表达式，可跨请求复用。
//
// 表达式可见的变量：
//   - candidate: {id, score, source, view_count, like_count, duration_sec, mobile_optimized}
//   - label:     候选标签的 key -> value 平铺（如 label.source == "recall.trending"）
//   - ctx:       {time_of_day, device, params...}
//
// 示例：
//   - `label.source == "recall.trending" && ctx.device == "mobile"`
//   - `candidate.score > 100.0`
//   - `ctx.time_of_day == "morning" && candidate.duration_sec < 600`
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式。编译一次、求值多次——规则节点在构造时就把
// 所有规则编译好，请求路径上只剩求值。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return nil, fmt.Errorf("dsl: empty expression")
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: init env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program %q: %w", expr, err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (p *Program) String() string { return p.expr }

// Eval 对单个候选求值，返回布尔结果。
func (p *Program) Eval(c *core.Candidate, uctx *core.UserContext, params map[string]any) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(c, uctx, params))
	if err != nil {
		return false, fmt.Errorf("dsl: eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression %q must return boolean, got %T", p.expr, out.Value())
	}
	return result, nil
}

func buildInput(c *core.Candidate, uctx *core.UserContext, params map[string]any) map[string]any {
	candidate := map[string]any{
		"id":     "",
		"score":  0.0,
		"source": "",
	}
	label := make(map[string]any)

	if c != nil {
		candidate["id"] = c.ContentID
		candidate["score"] = c.Score
		candidate["source"] = c.Source
		if c.Item != nil {
			candidate["view_count"] = float64(c.Item.ViewCount)
			candidate["like_count"] = float64(c.Item.LikeCount)
			candidate["duration_sec"] = float64(c.Item.DurationSec)
			candidate["mobile_optimized"] = c.Item.MobileOptimized
		}
		for k, v := range c.Labels {
			label[k] = v.Value
		}
	}

	ctxMap := make(map[string]any, len(params)+2)
	for k, v := range params {
		ctxMap[k] = v
	}
	if uctx != nil {
		ctxMap["time_of_day"] = string(uctx.TimeOfDay)
		ctxMap["device"] = string(uctx.Device)
	}

	return map[string]any{
		"candidate": candidate,
		"label":     label,
		"ctx":       ctxMap,
	}
}
