package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rushteam/cfkit/core"
)

// Querier 是 PostgresSource 需要的最小查询能力，*pgxpool.Pool 与 *pgx.Conn 都满足。
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresOptions 描述交互记录所在的表与列。
type PostgresOptions struct {
	// Table 默认 "enrollment"
	Table string
	// UserColumn 默认 "user_id"
	UserColumn string
	// ItemColumn 默认 "course_id"
	ItemColumn string
}

// PostgresSource 从关系型数据库读取全部交互记录（只读，不回写）。
// 默认对应选课表：SELECT user_id, course_id FROM enrollment。
type PostgresSource struct {
	db    Querier
	query string
	// pool 非空表示连接池由本数据源持有（OpenPostgresSource 创建）
	pool *pgxpool.Pool
}

// NewPostgresSource 创建数据源；表名与列名会按标识符转义。
func NewPostgresSource(db Querier, opts PostgresOptions) *PostgresSource {
	if opts.Table == "" {
		opts.Table = "enrollment"
	}
	if opts.UserColumn == "" {
		opts.UserColumn = "user_id"
	}
	if opts.ItemColumn == "" {
		opts.ItemColumn = "course_id"
	}
	return &PostgresSource{
		db: db,
		query: fmt.Sprintf("SELECT %s, %s FROM %s",
			pgx.Identifier{opts.UserColumn}.Sanitize(),
			pgx.Identifier{opts.ItemColumn}.Sanitize(),
			pgx.Identifier{opts.Table}.Sanitize(),
		),
	}
}

func (s *PostgresSource) Name() string { return "postgres" }

// Query 返回实际执行的 SQL。
func (s *PostgresSource) Query() string { return s.query }

func (s *PostgresSource) Interactions(ctx context.Context) ([]core.Interaction, error) {
	rows, err := s.db.Query(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Interaction, error) {
		var in core.Interaction
		err := row.Scan(&in.UserID, &in.ItemID)
		return in, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan interactions: %w", err)
	}
	return out, nil
}

// Close 关闭自身持有的连接池；NewPostgresSource 传入的 Querier 由调用方负责关闭。
func (s *PostgresSource) Close() error {
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
	return nil
}

var _ core.InteractionSource = (*PostgresSource)(nil)

// OpenPostgresSource 建立连接池并创建持有该连接池的数据源，用完需 Close。
func OpenPostgresSource(ctx context.Context, dsn string, opts PostgresOptions) (*PostgresSource, error) {
	pool, err := OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, err
	}
	src := NewPostgresSource(pool, opts)
	src.pool = pool
	return src, nil
}

// OpenPostgres 建立连接池并 Ping 一次确认可用。
func OpenPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: parse postgres dsn", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "store: postgres ping", err)
	}
	return pool, nil
}
