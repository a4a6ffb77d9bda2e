package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rushteam/cfkit/core"
)

type appendNode struct {
	id  int64
	err error
}

func (n *appendNode) Name() string { return "test.append" }
func (n *appendNode) Kind() Kind   { return KindRecall }
func (n *appendNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	if n.err != nil {
		return nil, n.err
	}
	return append(items, core.NewItem(n.id)), nil
}

func TestPipeline_Run(t *testing.T) {
	p := &Pipeline{Nodes: []Node{&appendNode{id: 1}, &appendNode{id: 2}}}
	got, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Errorf("Run() = %v", got)
	}
}

func TestPipeline_RunError(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{&appendNode{id: 1}, &appendNode{err: boom}}}
	if _, err := p.Run(context.Background(), &core.RecommendContext{}, nil); !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want %v", err, boom)
	}
}

type loggedNode struct {
	appendNode
	log *zerolog.Logger
}

func (n *loggedNode) SetLogger(l *zerolog.Logger) { n.log = l }

func TestPipeline_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf).Level(zerolog.DebugLevel)
	ln := &loggedNode{appendNode: appendNode{id: 3}}
	p := (&Pipeline{Name: "courses", Nodes: []Node{ln}}).WithLogger(&l)

	if ln.log != &l {
		t.Fatal("logger not propagated to node")
	}
	if _, err := p.Run(context.Background(), &core.RecommendContext{}, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"node":"test.append"`) {
		t.Errorf("expected node log, got %s", buf.String())
	}
}

const testYAML = `
log:
  level: debug
  format: console
pipeline:
  name: courses
  nodes:
    - type: test.append
      config:
        id: 7
`

func TestConfig_BuildPipeline(t *testing.T) {
	cfg, err := ParseYAML([]byte(testYAML))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "console" {
		t.Errorf("log config = %+v", cfg.Log)
	}

	factory := NewNodeFactory()
	factory.Register("test.append", func(c map[string]any) (Node, error) {
		id, _ := c["id"].(int)
		return &appendNode{id: int64(id)}, nil
	})

	p, err := cfg.BuildPipeline(factory)
	if err != nil {
		t.Fatalf("BuildPipeline() error = %v", err)
	}
	if p.Name != "courses" || len(p.Nodes) != 1 {
		t.Fatalf("pipeline = %+v", p)
	}
	items, _ := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if len(items) != 1 || items[0].ID != 7 {
		t.Errorf("items = %v", items)
	}

	if _, err := NewNodeFactory().Build("missing", nil); err == nil {
		t.Errorf("Build(unknown) returned nil error")
	}
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "p.yaml")
	jsonPath := filepath.Join(dir, "p.json")
	if err := os.WriteFile(yamlPath, []byte(testYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(jsonPath, []byte(`{"pipeline":{"name":"j","nodes":[{"type":"x"}]}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	y, err := LoadFromYAML(yamlPath)
	if err != nil || y.Pipeline.Name != "courses" {
		t.Errorf("LoadFromYAML() = %+v, %v", y, err)
	}
	j, err := LoadFromJSON(jsonPath)
	if err != nil || j.Pipeline.Name != "j" || len(j.Pipeline.Nodes) != 1 {
		t.Errorf("LoadFromJSON() = %+v, %v", j, err)
	}
	if _, err := LoadFromYAML(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Errorf("LoadFromYAML(missing) returned nil error")
	}
}

func TestLoad_ByExtensionAndEnv(t *testing.T) {
	t.Setenv("CF_PIPELINE_NAME", "from-env")
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "p.json")
	if err := os.WriteFile(jsonPath, []byte(`{"pipeline":{"name":"${CF_PIPELINE_NAME}"}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(jsonPath)
	if err != nil || cfg.Pipeline.Name != "from-env" {
		t.Errorf("Load(json) = %+v, %v", cfg, err)
	}

	y, err := ParseYAML([]byte("pipeline:\n  name: ${CF_PIPELINE_NAME}\n"))
	if err != nil || y.Pipeline.Name != "from-env" {
		t.Errorf("ParseYAML() = %+v, %v", y, err)
	}
}

func TestNodeFactory_Types(t *testing.T) {
	f := NewNodeFactory()
	f.Register("b", nil)
	f.Register("a", nil)
	if got := f.Types(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Types() = %v", got)
	}
}

type closableNode struct {
	appendNode
	closed int
	err    error
}

func (n *closableNode) Close() error {
	n.closed++
	return n.err
}

func TestPipeline_Close(t *testing.T) {
	boom := errors.New("pool busy")
	a := &closableNode{}
	b := &closableNode{err: boom}
	p := &Pipeline{Nodes: []Node{a, &appendNode{id: 1}, b}}

	err := p.Close()
	if !errors.Is(err, boom) {
		t.Errorf("Close() error = %v, want %v", err, boom)
	}
	if a.closed != 1 || b.closed != 1 {
		t.Errorf("closed = %d, %d; want 1, 1", a.closed, b.closed)
	}
}

func TestConfig_BuildPipeline_ClosesOnError(t *testing.T) {
	built := &closableNode{}
	factory := NewNodeFactory()
	factory.Register("test.closable", func(map[string]any) (Node, error) { return built, nil })
	factory.Register("test.broken", func(map[string]any) (Node, error) { return nil, errors.New("bad config") })

	cfg := &Config{Pipeline: PipelineConfig{Nodes: []NodeConfig{
		{Type: "test.closable"},
		{Type: "test.broken"},
	}}}
	if _, err := cfg.BuildPipeline(factory); err == nil {
		t.Fatal("BuildPipeline() returned nil error")
	}
	if built.closed != 1 {
		t.Errorf("already built node closed %d times, want 1", built.closed)
	}
}
