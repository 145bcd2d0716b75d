package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/offline-hub/offline-hub/internal/cache"
	"github.com/offline-hub/offline-hub/internal/logging"
	"github.com/offline-hub/offline-hub/internal/server"
)

// Worker 驱动缓存代的两段生命周期：install 预热当前代，activate 清除旧代。
// 启动流程先 Install 后 Activate，新实例不等待旧实例退出即开始接管请求。
type Worker struct {
	client   *http.Client
	logger   *logrus.Logger
	store    cache.Store
	resolver *server.UpstreamResolver
	precache []string
}

// Options 聚合 Worker 的依赖。
type Options struct {
	Client   *http.Client
	Logger   *logrus.Logger
	Store    cache.Store
	Resolver *server.UpstreamResolver
	Precache []string
}

// New 构造生命周期 Worker。
func New(opts Options) (*Worker, error) {
	if opts.Client == nil {
		return nil, errors.New("http client is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Store == nil {
		return nil, errors.New("cache store is required")
	}
	if opts.Resolver == nil {
		return nil, errors.New("upstream resolver is required")
	}
	return &Worker{
		client:   opts.Client,
		logger:   opts.Logger,
		store:    opts.Store,
		resolver: opts.Resolver,
		precache: append([]string(nil), opts.Precache...),
	}, nil
}

// Install 按清单顺序抓取每个预缓存 URL 并写入当前代。任何一次抓取失败
// （含非 200 状态码）都会让整次安装失败，旧代继续服务不受影响。
func (w *Worker) Install(ctx context.Context) error {
	version := w.store.Version()
	fields := logging.LifecycleFields("install", version)
	fields["precache"] = len(w.precache)
	w.logger.WithFields(fields).Info("安装开始")

	origin := w.resolver.OriginHost()
	for _, path := range w.precache {
		if err := w.precacheOne(ctx, origin, path); err != nil {
			w.logger.WithFields(logging.LifecycleFields("install", version)).
				WithError(err).Error("install_failed")
			return fmt.Errorf("precache %s: %w", path, err)
		}
	}

	w.logger.WithFields(logging.LifecycleFields("install", version)).Info("安装完成")
	return nil
}

func (w *Worker) precacheOne(ctx context.Context, origin, path string) error {
	target := w.resolver.Resolve(origin, path, "")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return err
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	locator := cache.Locator{Host: origin, Path: path}
	stored := cache.StoredResponse{Status: resp.StatusCode, Header: storableHeader(resp.Header)}
	if _, err := w.store.Put(ctx, locator, stored, resp.Body, cache.PutOptions{}); err != nil {
		return err
	}
	return nil
}

// Activate 枚举所有缓存代并删除名字不等于当前版本标签的每一个。
// 完成之后当前实例才开始接管已打开的客户端。
func (w *Worker) Activate(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	version := w.store.Version()
	generations, err := w.store.Generations()
	if err != nil {
		return fmt.Errorf("enumerate generations: %w", err)
	}

	var dropped []string
	for _, name := range generations {
		if name == version {
			continue
		}
		if err := w.store.DropGeneration(name); err != nil {
			return fmt.Errorf("drop generation %s: %w", name, err)
		}
		dropped = append(dropped, name)
	}

	fields := logging.LifecycleFields("activate", version)
	fields["dropped"] = dropped
	w.logger.WithFields(fields).Info("激活完成")
	return nil
}

func storableHeader(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	server.CopyHeaders(dst, src)
	return dst
}
