package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// versionTagPattern 限制版本标签为可以直接用作目录名的安全字符。
var versionTagPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if g.StoragePath == "" {
		return newFieldError("Global.StoragePath", "不能为空")
	}
	if g.CacheVersion == "" {
		return newFieldError("Global.CacheVersion", "不能为空")
	}
	if !versionTagPattern.MatchString(g.CacheVersion) {
		return newFieldError("Global.CacheVersion", "仅支持字母、数字、点、下划线与连字符")
	}
	if g.UpstreamTimeout.DurationValue() <= 0 {
		return newFieldError("Global.UpstreamTimeout", "必须大于 0")
	}
	if err := validateUpstream(g.OriginUpstream); err != nil {
		return fmt.Errorf("Global.OriginUpstream: %w", err)
	}

	for _, host := range c.Routing.BypassHosts {
		if err := validateHost(host); err != nil {
			return fmt.Errorf("Routing.BypassHosts[%s]: %w", host, err)
		}
	}
	for _, host := range c.Routing.ImmutableHosts {
		if err := validateHost(host); err != nil {
			return fmt.Errorf("Routing.ImmutableHosts[%s]: %w", host, err)
		}
	}
	for _, host := range c.Routing.StylesheetHosts {
		if err := validateHost(host); err != nil {
			return fmt.Errorf("Routing.StylesheetHosts[%s]: %w", host, err)
		}
	}

	if len(c.Precache) == 0 {
		return newFieldError("Precache", "至少需要一个预缓存 URL")
	}
	seen := map[string]struct{}{}
	for _, path := range c.Precache {
		if _, exists := seen[path]; exists {
			return newFieldError("Precache", fmt.Sprintf("重复条目: %s", path))
		}
		seen[path] = struct{}{}
	}

	return nil
}

func validateHost(host string) error {
	if host == "" {
		return errors.New("不能为空")
	}
	if strings.Contains(host, "/") {
		return errors.New("不允许包含路径")
	}
	if strings.Contains(host, " ") {
		return errors.New("不允许包含空格")
	}
	return nil
}

func validateUpstream(raw string) error {
	if raw == "" {
		return errors.New("不能为空")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("URL 非法: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("仅支持 http/https")
	}
	if parsed.Host == "" {
		return errors.New("缺少主机名")
	}
	return nil
}
