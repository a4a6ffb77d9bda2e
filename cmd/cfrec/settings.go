package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix 环境变量前缀：CFREC_CONFIG、CFREC_LOG_LEVEL、CFREC_TIMEOUT 等。
const EnvPrefix = "CFREC_"

// settings 是运行参数，优先级：命令行 > 环境变量 > 默认值。
// 日志级别/格式为空时使用 pipeline YAML 中 log 段的配置。
type settings struct {
	Config    string        `koanf:"config"`
	LogLevel  string        `koanf:"log_level"`
	LogFormat string        `koanf:"log_format"`
	Timeout   time.Duration `koanf:"timeout"`
}

func defaultSettings() settings {
	return settings{
		Config:  "config/courses.example.yaml",
		Timeout: 10 * time.Second,
	}
}

// loadSettings 依次加载默认值与 CFREC_ 环境变量。
func loadSettings() (settings, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaultSettings(), "koanf"), nil); err != nil {
		return settings{}, fmt.Errorf("load defaults: %w", err)
	}
	envProvider := env.Provider(EnvPrefix, ".", func(key string) string {
		return strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return settings{}, fmt.Errorf("load env: %w", err)
	}

	var s settings
	if err := k.Unmarshal("", &s); err != nil {
		return settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	return s, nil
}
