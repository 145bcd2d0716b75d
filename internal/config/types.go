package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// GlobalConfig 描述全局运行时行为，整个网关共享同一份参数。
type GlobalConfig struct {
	ListenPort      int      `mapstructure:"ListenPort"`
	LogLevel        string   `mapstructure:"LogLevel"`
	LogFilePath     string   `mapstructure:"LogFilePath"`
	LogMaxSize      int      `mapstructure:"LogMaxSize"`
	LogMaxBackups   int      `mapstructure:"LogMaxBackups"`
	LogCompress     bool     `mapstructure:"LogCompress"`
	StoragePath     string   `mapstructure:"StoragePath"`
	CacheVersion    string   `mapstructure:"CacheVersion"`
	OriginUpstream  string   `mapstructure:"OriginUpstream"`
	UpstreamTimeout Duration `mapstructure:"UpstreamTimeout"`
}

// RoutingConfig 是分类表：按主机名/路径把请求分到五个路由类。
// 列表顺序不参与优先级，优先级由路由类本身的固定顺序决定。
type RoutingConfig struct {
	BypassHosts            []string `mapstructure:"BypassHosts"`
	BypassHostSuffixes     []string `mapstructure:"BypassHostSuffixes"`
	ImmutableHosts         []string `mapstructure:"ImmutableHosts"`
	StylesheetHosts        []string `mapstructure:"StylesheetHosts"`
	NetworkFirstExtensions []string `mapstructure:"NetworkFirstExtensions"`
	NetworkFirstSegments   []string `mapstructure:"NetworkFirstSegments"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global   GlobalConfig  `mapstructure:",squash"`
	Routing  RoutingConfig `mapstructure:"Routing"`
	Precache []string      `mapstructure:"Precache"`
}
