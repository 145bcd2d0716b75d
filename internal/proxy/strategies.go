package proxy

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/offline-hub/offline-hub/internal/cache"
	"github.com/offline-hub/offline-hub/internal/logging"
)

// passthrough 直连网络：不读缓存、不写缓存，网络失败原样转化为网关错误。
func (h *Handler) passthrough(c fiber.Ctx, req requestState) error {
	resp, err := h.passthroughFetch(h.requestContext(c), c, req)
	if err != nil {
		h.logResult(req, 0, false, err)
		return h.writeError(c, fiber.StatusBadGateway, "upstream_failed")
	}
	return h.streamUpstream(c, req, resp, false)
}

// cacheFirst 命中即终身复用；未命中则单次回源并留存副本。
func (h *Handler) cacheFirst(c fiber.Ctx, req requestState) error {
	ctx := h.requestContext(c)

	if cached := h.lookupCache(ctx, req); cached != nil {
		return h.serveCached(c, req, cached)
	}

	resp, err := h.fetchUpstream(ctx, req)
	if err != nil {
		h.logResult(req, 0, false, err)
		return h.writeError(c, fiber.StatusBadGateway, "upstream_failed")
	}
	return h.streamUpstream(c, req, resp, true)
}

// networkFirst 先走网络，传输层失败时回退到缓存里完全相同的请求标识；
// 连缓存也没有才把失败暴露给调用方。HTTP 错误状态码是响应而非失败，不触发回退。
func (h *Handler) networkFirst(c fiber.Ctx, req requestState) error {
	ctx := h.requestContext(c)

	resp, err := h.fetchUpstream(ctx, req)
	if err == nil {
		return h.streamUpstream(c, req, resp, true)
	}

	if cached := h.lookupCache(ctx, req); cached != nil {
		h.logger.WithFields(logging.RequestFields(req.host, req.path, string(req.class), true)).
			WithError(err).Info("network_fallback_to_cache")
		return h.serveCached(c, req, cached)
	}

	h.logResult(req, 0, false, err)
	return h.writeError(c, fiber.StatusBadGateway, "upstream_failed")
}

// staleWhileRevalidate 并行发起网络请求与缓存查找：命中立即回放旧值，网络
// 结果由后台任务落盘供下次使用；未命中则等网络结果并同步写缓存。
func (h *Handler) staleWhileRevalidate(c fiber.Ctx, req requestState) error {
	ctx := h.requestContext(c)

	// 网络请求先于缓存查找发出，二者互不等待。后台请求不挂在请求生命周期上，
	// 页面先行关闭也任其完成。
	outcome := make(chan fetchOutcome, 1)
	go func() {
		resp, err := h.fetchUpstream(context.Background(), req)
		outcome <- fetchOutcome{resp: resp, err: err}
	}()

	if cached := h.lookupCache(ctx, req); cached != nil {
		go h.finishRevalidation(req, outcome)
		return h.serveCached(c, req, cached)
	}

	result := <-outcome
	if result.err != nil {
		h.logResult(req, 0, false, result.err)
		return h.writeError(c, fiber.StatusBadGateway, "upstream_failed")
	}
	return h.streamUpstream(c, req, result.resp, true)
}

type fetchOutcome struct {
	resp *http.Response
	err  error
}

// finishRevalidation 消化后台网络结果并覆盖缓存条目。任何失败都只记日志，
// 绝不影响已经返回的响应；onRevalidated 无论成败都会收到通知。
func (h *Handler) finishRevalidation(req requestState, outcome <-chan fetchOutcome) {
	result := <-outcome
	err := result.err
	if err == nil {
		func() {
			defer result.resp.Body.Close()
			if !isCacheableStatus(result.resp.StatusCode) {
				return
			}
			stored := cache.StoredResponse{Status: result.resp.StatusCode, Header: storableHeader(result.resp.Header)}
			opts := cache.PutOptions{ModTime: extractModTime(result.resp.Header)}
			_, err = h.store.Put(context.Background(), req.locator, stored, result.resp.Body, opts)
		}()
	}

	if err != nil {
		h.logger.WithError(err).
			WithFields(logging.RequestFields(req.host, req.path, string(req.class), false)).
			Debug("revalidation_failed")
	}
	if h.onRevalidated != nil {
		h.onRevalidated(req.locator, err)
	}
}
