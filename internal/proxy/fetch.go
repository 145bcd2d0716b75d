package proxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/offline-hub/offline-hub/internal/cache"
	"github.com/offline-hub/offline-hub/internal/server"
)

// requestHeader 把 fiber 请求头复制成 http.Header，后台 goroutine 可以安全持有。
func requestHeader(c fiber.Ctx) http.Header {
	header := http.Header{}
	c.Request().Header.VisitAll(func(key, value []byte) {
		header.Add(string(key), string(value))
	})
	return header
}

// fetchUpstream 发出单次网络请求，不做任何重试。
func (h *Handler) fetchUpstream(ctx context.Context, req requestState) (*http.Response, error) {
	return h.doUpstream(ctx, http.MethodGet, req, http.NoBody)
}

// passthroughFetch 针对非 GET 请求转发原 method 与正文。
func (h *Handler) passthroughFetch(ctx context.Context, c fiber.Ctx, req requestState) (*http.Response, error) {
	var body io.Reader = http.NoBody
	if raw := c.Body(); len(raw) > 0 {
		body = bytes.NewReader(raw)
	}
	return h.doUpstream(ctx, c.Method(), req, body)
}

func (h *Handler) doUpstream(ctx context.Context, method string, req requestState, body io.Reader) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, req.target.String(), body)
	if err != nil {
		return nil, err
	}
	server.CopyHeaders(httpReq.Header, req.header)
	// 让 transport 自行协商压缩，缓存里始终落明文正文。
	httpReq.Header.Del("Accept-Encoding")
	httpReq.Host = req.target.Host
	httpReq.Header.Set("Host", req.target.Host)
	return h.client.Do(httpReq)
}

// serveCached 将缓存条目完整回放给调用方（状态码、响应头、正文）。
func (h *Handler) serveCached(c fiber.Ctx, req requestState, result *cache.ReadResult) error {
	defer result.Reader.Close()

	copyResponseHeaders(c, result.Entry.Header)
	if result.Entry.SizeBytes > 0 {
		c.Response().Header.SetContentLength(int(result.Entry.SizeBytes))
	} else {
		c.Response().Header.Del("Content-Length")
	}
	c.Set("X-Offline-Hub-Upstream", req.target.String())
	c.Set("X-Offline-Hub-Cache-Hit", "true")
	c.Set("X-Offline-Hub-Class", string(req.class))
	if req.requestID != "" {
		c.Set("X-Request-ID", req.requestID)
	}
	c.Status(result.Entry.Status)

	_, err := io.Copy(c.Response().BodyWriter(), result.Reader)
	h.logResult(req, result.Entry.Status, true, err)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, fmt.Sprintf("read cache failed: %v", err))
	}
	return nil
}

// streamUpstream 把网络响应透传给调用方；shouldStore 为真时同步写入缓存副本。
func (h *Handler) streamUpstream(c fiber.Ctx, req requestState, resp *http.Response, shouldStore bool) error {
	defer resp.Body.Close()

	copyResponseHeaders(c, resp.Header)
	c.Set("X-Offline-Hub-Upstream", req.target.String())
	c.Set("X-Offline-Hub-Cache-Hit", "false")
	c.Set("X-Offline-Hub-Class", string(req.class))
	if req.requestID != "" {
		c.Set("X-Request-ID", req.requestID)
	}
	c.Status(resp.StatusCode)

	ctx := h.requestContext(c)

	if shouldStore && isCacheableStatus(resp.StatusCode) {
		reader := io.TeeReader(resp.Body, c.Response().BodyWriter())
		stored := cache.StoredResponse{Status: resp.StatusCode, Header: storableHeader(resp.Header)}
		opts := cache.PutOptions{ModTime: extractModTime(resp.Header)}
		_, err := h.store.Put(ctx, req.locator, stored, reader, opts)
		h.logResult(req, resp.StatusCode, false, err)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, fmt.Sprintf("cache_write_failed: %v", err))
		}
		return nil
	}

	_, err := io.Copy(c.Response().BodyWriter(), resp.Body)
	h.logResult(req, resp.StatusCode, false, err)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, fmt.Sprintf("proxy stream failed: %v", err))
	}
	return nil
}

func copyResponseHeaders(c fiber.Ctx, headers http.Header) {
	for key, values := range headers {
		if server.IsHopByHopHeader(key) {
			continue
		}
		for _, value := range values {
			c.Set(key, value)
		}
	}
}

// storableHeader 去掉 hop-by-hop 字段后返回可持久化的响应头副本。
func storableHeader(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	server.CopyHeaders(dst, src)
	return dst
}

func isCacheableStatus(status int) bool {
	return status == http.StatusOK
}

func extractModTime(header http.Header) time.Time {
	if last := header.Get("Last-Modified"); last != "" {
		if parsed, err := http.ParseTime(last); err == nil {
			return parsed.UTC()
		}
	}
	return time.Now().UTC()
}
