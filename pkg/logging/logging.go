// Package logging 基于 zerolog 构建日志实例。
//
// 库代码不使用全局 logger：各组件通过 *zerolog.Logger 字段注入，未设置时静默。
// 入口程序（cmd/cfrec）用 New 按配置构建 logger 后注入各节点。
//
//	log := logging.New(logging.Config{Level: "debug", Format: "console"})
//	log.Info().Int64("user_id", 42).Msg("recommend")
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config 日志配置。
type Config struct {
	// Level: trace / debug / info / warn / error / disabled，默认 info
	Level string

	// Format: json / console，默认 json
	Format string

	// Output 默认 os.Stderr
	Output io.Writer
}

// New 按配置构建 logger。
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	return zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().Timestamp().Logger()
}

// ParseLevel 将字符串转为 zerolog.Level，空串或无法识别时返回 InfoLevel。
// 额外接受 warning 与 off 两个别名。
func ParseLevel(level string) zerolog.Level {
	switch s := strings.ToLower(strings.TrimSpace(level)); s {
	case "":
		return zerolog.InfoLevel
	case "warning":
		return zerolog.WarnLevel
	case "off":
		return zerolog.Disabled
	default:
		l, err := zerolog.ParseLevel(s)
		if err != nil {
			return zerolog.InfoLevel
		}
		return l
	}
}

// Nop 返回一个丢弃所有输出的 logger 指针，便于作为组件的默认值。
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
