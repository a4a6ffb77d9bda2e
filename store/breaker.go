package store

import (
	"context"
	"errors"
	"io"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/pkg/metrics"
)

// BreakerConfig 熔断配置。
type BreakerConfig struct {
	// FailureThreshold 连续失败多少次后熔断，默认 5
	FailureThreshold uint32
	// Timeout 熔断后多久进入半开状态，默认 30s
	Timeout time.Duration
	// MaxRequests 半开状态允许通过的请求数，默认 1
	MaxRequests uint32
	// Interval 关闭状态下清零计数的周期，0 表示不清零
	Interval time.Duration
}

// BreakerSource 为外部交互数据源（Postgres / Redis）加上熔断保护：
// 数据源连续失败后快速返回 UNAVAILABLE，避免每个请求都等待超时。
type BreakerSource struct {
	src core.InteractionSource
	cb  *gobreaker.CircuitBreaker[[]core.Interaction]
}

func NewBreakerSource(src core.InteractionSource, cfg BreakerConfig) *BreakerSource {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	name := src.Name()
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, _, to gobreaker.State) {
			metrics.RecordBreakerState(name, int(to))
		},
		// 调用方取消不算数据源故障
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	return &BreakerSource{
		src: src,
		cb:  gobreaker.NewCircuitBreaker[[]core.Interaction](settings),
	}
}

func (b *BreakerSource) Name() string { return b.src.Name() }

// State 返回当前熔断状态：closed / half-open / open。
func (b *BreakerSource) State() string { return b.cb.State().String() }

func (b *BreakerSource) Interactions(ctx context.Context) ([]core.Interaction, error) {
	out, err := b.cb.Execute(func() ([]core.Interaction, error) {
		return b.src.Interactions(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, core.WrapDomainError(core.ModuleSource, core.ErrorCodeUnavailable,
			"source "+b.src.Name()+": circuit breaker "+b.cb.State().String(), err)
	}
	return out, err
}

var _ core.InteractionSource = (*BreakerSource)(nil)

// Close 关闭被包装的数据源（若其实现了 io.Closer）。
func (b *BreakerSource) Close() error {
	if c, ok := b.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
