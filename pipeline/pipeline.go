package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/pkg/metrics"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链：Recall → Filter → ReRank → PostProcess。
type Pipeline struct {
	Name   string
	Nodes  []Node
	Logger *zerolog.Logger
}

// LoggerSetter 由需要日志的 Node 实现，WithLogger 会把 logger 下发给它们。
type LoggerSetter interface {
	SetLogger(l *zerolog.Logger)
}

// WithLogger 设置 Pipeline 的 logger 并下发给实现了 LoggerSetter 的 Node。
func (p *Pipeline) WithLogger(l *zerolog.Logger) *Pipeline {
	p.Logger = l
	for _, node := range p.Nodes {
		if s, ok := node.(LoggerSetter); ok {
			s.SetLogger(l)
		}
	}
	return p
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		metrics.RecordNode(p.Name, node.Name(), string(node.Kind()), time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		if p.Logger != nil {
			p.Logger.Debug().
				Str("pipeline", p.Name).
				Str("node", node.Name()).
				Str("kind", string(node.Kind())).
				Int("in", len(cur)).
				Int("out", len(next)).
				Dur("took", time.Since(start)).
				Msg("node done")
		}
		cur = next
	}
	return cur, nil
}

// Close 关闭所有实现了 io.Closer 的 Node（例如持有数据库连接池的召回节点），
// 返回合并后的错误。
func (p *Pipeline) Close() error {
	return closeNodes(p.Nodes)
}

func closeNodes(nodes []Node) error {
	var errs []error
	for _, node := range nodes {
		if c, ok := node.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", node.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}
