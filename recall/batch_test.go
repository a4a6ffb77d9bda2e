package recall

import (
	"context"
	"slices"
	"testing"

	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/matrix"
)

func TestUserCF_Batch(t *testing.T) {
	records := randomInteractions(7, 25, 30, 150)
	cf := &UserCF{Source: &StaticSource{Records: records}}
	m := matrix.Build(records)

	reqs := make([]Request, 0)
	for _, u := range m.Users() {
		reqs = append(reqs, Request{UserID: u, TopN: 4})
	}
	reqs = append(reqs,
		Request{Items: []int64{1, 2, 3}, TopN: 4},
		Request{Items: []int64{4, 5}, TopN: 2},
		Request{Items: []int64{6}},
	)

	results, err := cf.Batch(context.Background(), reqs, 4)
	if err != nil {
		t.Fatalf("Batch() error = %v", err)
	}
	if len(results) != len(reqs) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(reqs))
	}

	for i, res := range results {
		req := reqs[i]
		if res.Request.UserID != req.UserID || !slices.Equal(res.Request.Items, req.Items) {
			t.Fatalf("result %d out of order: %+v", i, res.Request)
		}
		if len(req.Items) == 1 {
			if !core.IsInvalidInput(res.Err) {
				t.Errorf("single-item request err = %v, want INVALID_INPUT", res.Err)
			}
			continue
		}
		want := cf.Recommend(m, req.UserID, req.Items, req.TopN)
		if !slices.Equal(res.Candidates, want) {
			t.Errorf("request %d: batch %v != sequential %v", i, res.Candidates, want)
		}
	}
}

func TestUserCF_Batch_Cancelled(t *testing.T) {
	cf := &UserCF{Source: &StaticSource{Records: randomInteractions(3, 5, 5, 20)}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := cf.Batch(ctx, []Request{{UserID: 1}}, 1); err == nil {
		t.Errorf("Batch() on cancelled context returned nil error")
	}
}

func TestUserCF_Batch_SourceError(t *testing.T) {
	cf := &UserCF{Source: failingSource{err: context.DeadlineExceeded}}
	if _, err := cf.Batch(context.Background(), []Request{{UserID: 1}}, 0); !core.IsUnavailable(err) {
		t.Errorf("err = %v, want UNAVAILABLE", err)
	}
}
