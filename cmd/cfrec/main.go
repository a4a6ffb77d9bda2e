// Command cfrec 按 YAML 配置运行推荐 Pipeline，并以 JSON 输出结果。
// 运行参数也可以通过 CFREC_ 前缀的环境变量设置。
//
//	cfrec -config courses.yaml -user 42
//	cfrec -config courses.yaml -items 101,205 -n 3
//	cfrec -config trends.yaml -trends
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/cfkit/config"
	_ "github.com/rushteam/cfkit/config/builders"
	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/pipeline"
	"github.com/rushteam/cfkit/pkg/logging"
	"github.com/rushteam/cfkit/pkg/utils"
	"github.com/rushteam/cfkit/recall"
)

type result struct {
	ID     int64                  `json:"id"`
	Score  float64                `json:"score"`
	Meta   map[string]any         `json:"meta,omitempty"`
	Labels map[string]utils.Label `json:"labels,omitempty"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "cfrec:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	st, err := loadSettings()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("cfrec", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", st.Config, "pipeline YAML file")
		userID     = fs.Int64("user", 0, "user id to recommend for")
		items      = fs.String("items", "", "comma separated item ids (ad-hoc profile)")
		topN       = fs.Int("n", 0, "number of recommendations (0 = configured default)")
		logLevel   = fs.String("log-level", st.LogLevel, "log level, overrides config")
		logFormat  = fs.String("log-format", st.LogFormat, "log format json|console, overrides config")
		timeout    = fs.Duration("timeout", st.Timeout, "request timeout")
		trends     = fs.Bool("trends", false, "print enrollments per department instead of recommendations")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := pipeline.Load(*configPath)
	if err != nil {
		return err
	}
	logCfg := logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: stderr}
	if *logLevel != "" {
		logCfg.Level = *logLevel
	}
	if *logFormat != "" {
		logCfg.Format = *logFormat
	}
	log := logging.New(logCfg)

	if err := config.ValidatePipelineConfig(cfg); err != nil {
		return err
	}
	p, err := cfg.BuildPipeline(config.DefaultFactory())
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			log.Warn().Err(err).Msg("close pipeline")
		}
	}()
	p.WithLogger(&log)

	if *trends {
		ctx, cancel := context.WithTimeout(ctx, *timeout)
		defer cancel()
		return printTrends(ctx, p, stdout)
	}

	profile, err := parseItems(*items)
	if err != nil {
		return err
	}
	rctx := &core.RecommendContext{UserID: *userID, Items: profile, TopN: *topN, Scene: "cli"}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	start := time.Now()
	out, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return err
	}
	log.Info().
		Int64("user_id", rctx.UserID).
		Bool("adhoc", rctx.IsAdHoc()).
		Int("items", len(out)).
		Dur("took", time.Since(start)).
		Msg("recommend")

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(toResults(out))
}

// trendsProvider 由能给出院系热度排行的节点实现（recall.hot 配置 catalog 时）。
type trendsProvider interface {
	Trends(ctx context.Context) ([]recall.DepartmentCount, error)
}

type trend struct {
	Department  string `json:"department"`
	Enrollments int    `json:"enrollments"`
}

func printTrends(ctx context.Context, p *pipeline.Pipeline, stdout io.Writer) error {
	for _, node := range p.Nodes {
		tp, ok := node.(trendsProvider)
		if !ok {
			continue
		}
		counts, err := tp.Trends(ctx)
		if err != nil {
			return err
		}
		out := make([]trend, 0, len(counts))
		for _, c := range counts {
			out = append(out, trend{Department: c.Department, Enrollments: c.Count})
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return fmt.Errorf("pipeline %q has no recall.hot node to compute trends", p.Name)
}

func parseItems(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid item id %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func toResults(items []*core.Item) []result {
	out := make([]result, 0, len(items))
	for _, it := range items {
		out = append(out, result{ID: it.ID, Score: it.Score, Meta: it.Meta, Labels: it.Labels})
	}
	return out
}
