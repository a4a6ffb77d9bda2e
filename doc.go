// Package cfkit 是一个基于用户的协同过滤推荐工具包（二值交互，如选课记录）。
//
// 设计要点：
// - Matrix-first: 交互记录构建为稠密 0/1 用户×物品矩阵，临时画像通过复制扩展，不修改共享矩阵
// - Pipeline-first: 推荐链路通过 Node 串联（Recall → Filter → ReRank → PostProcess）
// - Fail-soft: 计算异常返回空结果并记录日志，数据源错误则原样上报
package cfkit

import "github.com/rushteam/cfkit/pipeline"

// 轻量 facade：便于用户直接 import "cfkit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
