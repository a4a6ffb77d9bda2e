package main

import (
	"bytes"
	"context"
	"slices"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/cfkit/core"
)

const exampleConfig = "../../config/courses.example.yaml"

func runCLI(t *testing.T, args ...string) ([]result, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	args = append([]string{"-config", exampleConfig, "-log-level", "disabled"}, args...)
	if err := run(context.Background(), args, &stdout, &stderr); err != nil {
		return nil, err
	}
	var out []result
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout.String())
	}
	return out, nil
}

func ids(rs []result) []int64 {
	out := make([]int64, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func TestRun_KnownUser(t *testing.T) {
	out, err := runCLI(t, "-user", "1")
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	// 课程 6 在黑名单中
	if got := ids(out); !slices.Equal(got, []int64{3, 4, 5}) {
		t.Fatalf("ids = %v, want [3 4 5]", got)
	}
	if out[0].Meta["title"] != "CSE 132 - Databases" {
		t.Errorf("meta = %v", out[0].Meta)
	}
	if out[0].Labels["cf_mode"].Value != "user" {
		t.Errorf("labels = %v", out[0].Labels)
	}
}

func TestRun_AdHoc(t *testing.T) {
	out, err := runCLI(t, "-items", "1, 2", "-n", "3")
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got := ids(out); !slices.Equal(got, []int64{3, 4}) {
		t.Errorf("ids = %v, want [3 4]", got)
	}
}

func TestRun_Errors(t *testing.T) {
	if _, err := runCLI(t, "-items", "1"); !core.IsInvalidInput(err) {
		t.Errorf("single ad-hoc item err = %v, want invalid input", err)
	}
	if _, err := runCLI(t, "-items", "1,x"); err == nil {
		t.Error("bad item id should fail")
	}
	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"-config", "missing.yaml"}, &stdout, &stderr); err == nil {
		t.Error("missing config should fail")
	}
}

func TestParseItems(t *testing.T) {
	got, err := parseItems(" 101, 102,,103 ")
	if err != nil || !slices.Equal(got, []int64{101, 102, 103}) {
		t.Errorf("parseItems() = %v, %v", got, err)
	}
	if got, _ := parseItems(""); got != nil {
		t.Errorf("empty = %v", got)
	}
}

func TestLoadSettings(t *testing.T) {
	st, err := loadSettings()
	if err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}
	if st != defaultSettings() {
		t.Errorf("defaults = %+v", st)
	}

	t.Setenv("CFREC_LOG_LEVEL", "debug")
	t.Setenv("CFREC_TIMEOUT", "3s")
	t.Setenv("CFREC_CONFIG", exampleConfig)
	st, err = loadSettings()
	if err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}
	if st.LogLevel != "debug" || st.Timeout != 3*time.Second || st.Config != exampleConfig {
		t.Errorf("env settings = %+v", st)
	}
}

const trendsConfig = "../../config/trends.example.yaml"

func TestRun_HotFillsColdStart(t *testing.T) {
	tests := []struct {
		name string
		user string
		want []int64
	}{
		{"unknown user gets popular courses", "99", []int64{1, 2, 3}},
		{"short cf result is filled", "3", []int64{1, 2, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, "-config", trendsConfig, "-user", tt.user, "-n", "3")
			if err != nil {
				t.Fatalf("run() error = %v", err)
			}
			if got := ids(out); !slices.Equal(got, tt.want) {
				t.Fatalf("ids = %v, want %v", got, tt.want)
			}
			if last := out[len(out)-1]; last.Labels["recall_source"].Value != "hot" || last.Meta["title"] == nil {
				t.Errorf("last item = %+v", last)
			}
		})
	}
}

func TestRun_Trends(t *testing.T) {
	var stdout, stderr bytes.Buffer
	args := []string{"-config", trendsConfig, "-log-level", "disabled", "-trends"}
	if err := run(context.Background(), args, &stdout, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	var got []trend
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout.String())
	}
	want := []trend{{"CSE", 5}, {"MATH", 3}, {"COGS", 1}, {"ECON", 1}, {"VIS", 1}}
	if !slices.Equal(got, want) {
		t.Errorf("trends = %v, want %v", got, want)
	}

	// 示例配置中没有 recall.hot
	stdout.Reset()
	args = []string{"-config", exampleConfig, "-log-level", "disabled", "-trends"}
	if err := run(context.Background(), args, &stdout, &stderr); err == nil {
		t.Error("trends without recall.hot should fail")
	}
}
