package rerank

import (
	"context"
	"fmt"
	"sort"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
	"github.com/rushteam/feedkit/pkg/dsl"
	"github.com/rushteam/feedkit/pkg/utils"
)

// Rule 是一条数据驱动的调权规则：When 表达式（CEL）命中即乘 Multiply。
// 内置的情境调权覆盖不了的业务规则（运营加权、临时降权）走这里，改配置不改代码。
type Rule struct {
	// When CEL 布尔表达式，见 pkg/dsl 的变量说明
	When string `yaml:"when"`

	// Multiply 命中后的乘法系数，必须为正（推荐分数恒非负）
	Multiply float64 `yaml:"multiply"`
}

// RuleNode 按规则表做乘法调权并重排。规则在构造时编译，请求路径只求值。
type RuleNode struct {
	rules []Rule
	progs []*dsl.Program
}

// NewRuleNode 编译规则表。任一表达式非法或系数非正都在这里报错，
// 不把坏规则带到请求路径上。
func NewRuleNode(rules []Rule) (*RuleNode, error) {
	n := &RuleNode{
		rules: rules,
		progs: make([]*dsl.Program, len(rules)),
	}
	for i, r := range rules {
		if r.Multiply <= 0 {
			return nil, fmt.Errorf("rerank: rule %d: multiply must be positive, got %v", i, r.Multiply)
		}
		prog, err := dsl.Compile(r.When)
		if err != nil {
			return nil, fmt.Errorf("rerank: rule %d: %w", i, err)
		}
		n.progs[i] = prog
	}
	return n, nil
}

func (n *RuleNode) Name() string        { return "rerank.rule" }
func (n *RuleNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *RuleNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	cands []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(n.rules) == 0 || len(cands) == 0 {
		return cands, nil
	}

	var uctx *core.UserContext
	var params map[string]any
	if rctx != nil {
		uctx = rctx.Context
		params = rctx.Params
	}

	out := make([]*core.Candidate, 0, len(cands))
	for _, c := range cands {
		if c == nil {
			continue
		}
		adjusted := *c
		for i, prog := range n.progs {
			hit, err := prog.Eval(c, uctx, params)
			if err != nil {
				// 单条规则求值失败只影响这条规则，不影响整个候选
				continue
			}
			if hit {
				adjusted.Score *= n.rules[i].Multiply
				adjusted.PutLabel("rule_hit", utils.Label{Value: prog.String(), Source: "rule"})
			}
		}
		out = append(out, &adjusted)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out, nil
}

var _ pipeline.Node = (*RuleNode)(nil)
