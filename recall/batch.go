package recall

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Request 是批量推荐中的单个请求，语义与 core.RecommendContext 的目标字段一致。
type Request struct {
	UserID int64
	Items  []int64
	TopN   int
}

// Result 是单个请求的结果；Err 仅承载调用方策略错误（如临时画像物品不足）。
type Result struct {
	Request    Request
	Candidates []Candidate
	Err        error
}

// Batch 读取一次交互快照，在同一个只读矩阵上并发处理多个请求。
// limit 为最大并发数（<= 0 表示不限制）。结果顺序与 reqs 一致。
// 只有数据源读取失败或 ctx 取消时返回 error。
func (r *UserCF) Batch(ctx context.Context, reqs []Request, limit int) ([]Result, error) {
	if r.Source == nil || len(reqs) == 0 {
		return nil, nil
	}

	m, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(reqs))
	eg, egCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}

	for i, req := range reqs {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			results[i].Request = req
			if err := r.checkAdHoc(req.Items); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Candidates = r.Recommend(m, req.UserID, req.Items, req.TopN)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
