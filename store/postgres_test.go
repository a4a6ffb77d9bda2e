package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/rushteam/cfkit/core"
)

// fakeRows 只实现 CollectRows 用到的方法，其余方法由嵌入的 nil 接口兜底。
type fakeRows struct {
	pgx.Rows
	data   [][2]int64
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	*dest[0].(*int64) = row[0]
	*dest[1].(*int64) = row[1]
	return nil
}

func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) Close()     { r.closed = true }

type fakeQuerier struct {
	rows   *fakeRows
	err    error
	gotSQL string
}

func (q *fakeQuerier) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	q.gotSQL = sql
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

func TestPostgresSource_Query(t *testing.T) {
	tests := []struct {
		name string
		opts PostgresOptions
		want string
	}{
		{"defaults", PostgresOptions{}, `SELECT "user_id", "course_id" FROM "enrollment"`},
		{"custom", PostgresOptions{Table: "clicks", UserColumn: "uid", ItemColumn: "iid"}, `SELECT "uid", "iid" FROM "clicks"`},
		{"quoted identifiers", PostgresOptions{Table: `bad"name`}, `SELECT "user_id", "course_id" FROM "bad""name"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewPostgresSource(nil, tt.opts).Query(); got != tt.want {
				t.Errorf("Query() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPostgresSource_Interactions(t *testing.T) {
	rows := &fakeRows{data: [][2]int64{{1, 10}, {1, 11}, {2, 10}}}
	q := &fakeQuerier{rows: rows}
	src := NewPostgresSource(q, PostgresOptions{})

	got, err := src.Interactions(context.Background())
	if err != nil {
		t.Fatalf("Interactions() error = %v", err)
	}
	want := []core.Interaction{{UserID: 1, ItemID: 10}, {UserID: 1, ItemID: 11}, {UserID: 2, ItemID: 10}}
	if len(got) != len(want) {
		t.Fatalf("Interactions() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %v, want %v", i, got[i], want[i])
		}
	}
	if !rows.closed {
		t.Errorf("rows not closed")
	}
	if q.gotSQL != src.Query() {
		t.Errorf("executed %q, want %q", q.gotSQL, src.Query())
	}
}

func TestPostgresSource_Errors(t *testing.T) {
	boom := errors.New("boom")

	src := NewPostgresSource(&fakeQuerier{err: boom}, PostgresOptions{})
	if _, err := src.Interactions(context.Background()); !errors.Is(err, boom) {
		t.Errorf("query error = %v, want wrapped boom", err)
	}

	src = NewPostgresSource(&fakeQuerier{rows: &fakeRows{err: boom}}, PostgresOptions{})
	if _, err := src.Interactions(context.Background()); !errors.Is(err, boom) {
		t.Errorf("rows error = %v, want wrapped boom", err)
	}
}

func TestPostgresSource_CloseBorrowed(t *testing.T) {
	q := &fakeQuerier{}
	src := NewPostgresSource(q, PostgresOptions{})
	// 外部传入的 Querier 不归数据源所有，Close 不做任何事
	if err := src.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
