package routeclass

import (
	"net"
	"strings"

	"github.com/offline-hub/offline-hub/internal/config"
)

// Classifier 把 (host, path) 映射到一个路由类。规则按固定优先级逐条求值，
// 同时命中多条时取最先声明的那条：bypass > immutable > stylesheet >
// network-first > default。优先级本身是契约的一部分。
type Classifier struct {
	rules []rule
}

type rule struct {
	class Class
	match func(host, path string) bool
}

// NewClassifier 根据配置里的分类表构建 Classifier，表内容全部是字面量匹配。
func NewClassifier(cfg config.RoutingConfig) *Classifier {
	bypassHosts := toSet(cfg.BypassHosts)
	immutableHosts := toSet(cfg.ImmutableHosts)
	stylesheetHosts := toSet(cfg.StylesheetHosts)
	suffixes := append([]string(nil), cfg.BypassHostSuffixes...)
	extensions := append([]string(nil), cfg.NetworkFirstExtensions...)
	segments := append([]string(nil), cfg.NetworkFirstSegments...)

	return &Classifier{
		rules: []rule{
			{
				class: ClassBypass,
				match: func(host, _ string) bool {
					if _, ok := bypassHosts[host]; ok {
						return true
					}
					for _, suffix := range suffixes {
						if strings.HasSuffix(host, suffix) {
							return true
						}
					}
					return false
				},
			},
			{
				class: ClassImmutable,
				match: func(host, _ string) bool {
					_, ok := immutableHosts[host]
					return ok
				},
			},
			{
				class: ClassStylesheet,
				match: func(host, _ string) bool {
					_, ok := stylesheetHosts[host]
					return ok
				},
			},
			{
				class: ClassNetworkFirst,
				match: func(_, path string) bool {
					lower := strings.ToLower(path)
					for _, ext := range extensions {
						if strings.HasSuffix(lower, ext) {
							return true
						}
					}
					for _, segment := range segments {
						if strings.Contains(path, segment) {
							return true
						}
					}
					return false
				},
			},
		},
	}
}

// Classify 返回请求命中的路由类，任何规则都未命中时落入 ClassDefault。
func (c *Classifier) Classify(host, path string) Class {
	host = NormalizeHost(host)
	for _, r := range c.rules {
		if r.match(host, path) {
			return r.class
		}
	}
	return ClassDefault
}

// NormalizeHost 去掉端口并统一小写，供分类与缓存定位共用。
func NormalizeHost(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, ":") {
		if host, _, err := net.SplitHostPort(raw); err == nil {
			raw = host
		}
	}
	return strings.ToLower(strings.TrimSuffix(raw, "."))
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
