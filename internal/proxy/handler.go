package proxy

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/offline-hub/offline-hub/internal/cache"
	"github.com/offline-hub/offline-hub/internal/logging"
	"github.com/offline-hub/offline-hub/internal/routeclass"
	"github.com/offline-hub/offline-hub/internal/server"
)

// Handler 负责 orchestrate “分类 → 策略 → 缓存/网络” 的全流程，
// 对外暴露 Fiber handler，内部复用共享 http.Client 与磁盘缓存。
type Handler struct {
	client     *http.Client
	logger     *logrus.Logger
	store      cache.Store
	classifier *routeclass.Classifier
	resolver   *server.UpstreamResolver

	// onRevalidated 在每次后台刷新结束后被调用（无论成败），供测试观测
	// fire-and-forget 写入是否最终落盘。生产环境为 nil。
	onRevalidated func(locator cache.Locator, err error)
}

// Options 聚合 Handler 的全部依赖，便于在测试中注入。
type Options struct {
	Client        *http.Client
	Logger        *logrus.Logger
	Store         cache.Store
	Classifier    *routeclass.Classifier
	Resolver      *server.UpstreamResolver
	OnRevalidated func(locator cache.Locator, err error)
}

// NewHandler constructs the strategy router with shared HTTP client/logger/store.
func NewHandler(opts Options) *Handler {
	return &Handler{
		client:        opts.Client,
		logger:        opts.Logger,
		store:         opts.Store,
		classifier:    opts.Classifier,
		resolver:      opts.Resolver,
		onRevalidated: opts.OnRevalidated,
	}
}

// Handle 对每个被拦截的请求求值分类表并执行对应策略。
// 只有 GET 参与缓存；其余 method 一律直连网络。
func (h *Handler) Handle(c fiber.Ctx) error {
	started := time.Now()
	requestID := server.RequestID(c)

	host := routeclass.NormalizeHost(server.HostHeader(c))
	if h.resolver.IsOrigin(host) {
		host = h.resolver.OriginHost()
	}
	path := string(c.Request().URI().Path())
	query := string(c.Request().URI().QueryString())

	target := h.resolver.Resolve(host, path, query)
	class := h.classifier.Classify(host, path)
	meta, _ := routeclass.Resolve(class)

	req := requestState{
		host:      host,
		path:      path,
		class:     class,
		target:    target,
		requestID: requestID,
		started:   started,
		header:    requestHeader(c),
		locator:   cache.Locator{Host: host, Path: path, Query: query},
	}

	if c.Method() != http.MethodGet {
		return h.passthrough(c, req)
	}

	switch meta.Strategy {
	case routeclass.StrategyPassthrough:
		return h.passthrough(c, req)
	case routeclass.StrategyCacheFirst:
		return h.cacheFirst(c, req)
	case routeclass.StrategyNetworkFirst:
		return h.networkFirst(c, req)
	default:
		return h.staleWhileRevalidate(c, req)
	}
}

// requestState 把一次请求派生出的只读数据捆在一起传给各策略，
// 后台 goroutine 只允许使用这里的副本，不得再触碰 fiber.Ctx。
type requestState struct {
	host      string
	path      string
	class     routeclass.Class
	target    *url.URL
	requestID string
	started   time.Time
	header    http.Header
	locator   cache.Locator
}

func (h *Handler) requestContext(c fiber.Ctx) context.Context {
	ctx := c.Context()
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// lookupCache 读取当前代的条目；miss 是正常信号，其他错误仅记日志。
func (h *Handler) lookupCache(ctx context.Context, req requestState) *cache.ReadResult {
	result, err := h.store.Get(ctx, req.locator)
	switch {
	case err == nil:
		return result
	case errors.Is(err, cache.ErrNotFound):
		return nil
	default:
		h.logger.WithError(err).
			WithFields(logrus.Fields{"host": req.host, "route_class": string(req.class)}).
			Warn("cache_get_failed")
		return nil
	}
}

func (h *Handler) writeError(c fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{"error": code})
}

func (h *Handler) logResult(req requestState, status int, cacheHit bool, err error) {
	fields := logging.RequestFields(req.host, req.path, string(req.class), cacheHit)
	fields["action"] = "route"
	fields["upstream"] = req.target.String()
	fields["status"] = status
	fields["duration_ms"] = time.Since(req.started).Milliseconds()
	if req.requestID != "" {
		fields["request_id"] = req.requestID
	}

	entry := h.logger.WithFields(fields)
	if err != nil {
		entry.WithError(err).Warn("request_failed")
		return
	}
	entry.Info("request_served")
}
