package server

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/offline-hub/offline-hub/internal/config"
	"github.com/offline-hub/offline-hub/internal/routeclass"
)

// UpstreamResolver 把被拦截请求的 (host, path, query) 还原成真正要访问的网络 URL。
// 同源请求（站点外壳、预缓存清单里的相对路径）落到配置的 OriginUpstream；
// 其余主机按 https://<host><path> 直连。
type UpstreamResolver struct {
	origin     *url.URL
	originHost string
}

// NewUpstreamResolver 解析配置里的 OriginUpstream 并预先归一化主机名。
func NewUpstreamResolver(cfg *config.Config) (*UpstreamResolver, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	origin, err := url.Parse(cfg.Global.OriginUpstream)
	if err != nil {
		return nil, fmt.Errorf("invalid origin upstream: %w", err)
	}
	if origin.Host == "" {
		return nil, errors.New("origin upstream missing host")
	}
	return &UpstreamResolver{
		origin:     origin,
		originHost: routeclass.NormalizeHost(origin.Host),
	}, nil
}

// OriginHost 返回归一化后的同源主机名，供缓存定位复用。
func (r *UpstreamResolver) OriginHost() string {
	return r.originHost
}

// IsOrigin 判断一个主机是否视作同源（为空的 Host 也按同源处理）。
func (r *UpstreamResolver) IsOrigin(host string) bool {
	normalized := routeclass.NormalizeHost(host)
	return normalized == "" || normalized == r.originHost
}

// Resolve 产出请求的网络侧 URL。path 必须以 "/" 开头，query 不含 "?" 前缀。
func (r *UpstreamResolver) Resolve(host, path, query string) *url.URL {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if r.IsOrigin(host) {
		target := *r.origin
		target.Path = strings.TrimSuffix(target.Path, "/") + path
		target.RawQuery = query
		return &target
	}

	return &url.URL{
		Scheme:   "https",
		Host:     routeclass.NormalizeHost(host),
		Path:     path,
		RawQuery: query,
	}
}
