// Package feedkit 是一个混合推荐引擎工具包（Feed Kit）。
//
// 设计要点：
// - 策略混合: 协同过滤 / 内容匹配 / 热度 / 多样性四路召回，按配额混合去重
// - 冷启动分流: 零信号身份绕过混合链路，走人气保底 + 注册类目偏好
// - 情境重排: 纯函数调权（时段/设备/亲和/疲劳），规则重排用 CEL 表达式驱动
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测
// - Node 可扩展: 召回/过滤/重排均为 pipeline.Node，自定义 Node 即可插拔
package feedkit

import "github.com/rushteam/feedkit/pipeline"

// 轻量 facade：便于用户直接 import "feedkit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindBlend       = pipeline.KindBlend
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
