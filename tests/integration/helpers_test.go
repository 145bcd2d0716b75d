package integration

import (
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/offline-hub/offline-hub/internal/cache"
	"github.com/offline-hub/offline-hub/internal/config"
	"github.com/offline-hub/offline-hub/internal/lifecycle"
	"github.com/offline-hub/offline-hub/internal/proxy"
	"github.com/offline-hub/offline-hub/internal/routeclass"
	"github.com/offline-hub/offline-hub/internal/server"
)

// gateway 组合一套完整的网关：存储、生命周期、策略路由与 Fiber app。
type gateway struct {
	app      *fiber.App
	store    cache.Store
	worker   *lifecycle.Worker
	origin   string
	upstream *httptest.Server
}

func newGateway(t *testing.T, storageDir, version string, upstream *httptest.Server, precache []string) *gateway {
	t.Helper()

	parsed, err := url.Parse(upstream.URL)
	if err != nil {
		t.Fatalf("parse upstream: %v", err)
	}

	cfg := &config.Config{
		Global: config.GlobalConfig{
			ListenPort:     5000,
			StoragePath:    storageDir,
			CacheVersion:   version,
			OriginUpstream: upstream.URL,
		},
		Routing: config.RoutingConfig{
			NetworkFirstExtensions: []string{".csv"},
			NetworkFirstSegments:   []string{"/latest/"},
		},
		Precache: precache,
	}

	store, err := cache.NewStore(cfg.Global.StoragePath, cfg.Global.CacheVersion)
	if err != nil {
		t.Fatalf("store error: %v", err)
	}

	resolver, err := server.NewUpstreamResolver(cfg)
	if err != nil {
		t.Fatalf("resolver error: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client := server.NewUpstreamClient(cfg)

	worker, err := lifecycle.New(lifecycle.Options{
		Client:   client,
		Logger:   logger,
		Store:    store,
		Resolver: resolver,
		Precache: cfg.Precache,
	})
	if err != nil {
		t.Fatalf("worker error: %v", err)
	}

	handler := proxy.NewHandler(proxy.Options{
		Client:     client,
		Logger:     logger,
		Store:      store,
		Classifier: routeclass.NewClassifier(cfg.Routing),
		Resolver:   resolver,
	})

	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Proxy:      handler,
		ListenPort: cfg.Global.ListenPort,
	})
	if err != nil {
		t.Fatalf("app error: %v", err)
	}

	return &gateway{
		app:      app,
		store:    store,
		worker:   worker,
		origin:   parsed.Hostname(),
		upstream: upstream,
	}
}

func (g *gateway) get(t *testing.T, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("GET", g.upstream.URL+path, nil)
	resp, err := g.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

// countBodyFiles 统计某个缓存代目录下的正文文件数量。
func countBodyFiles(t *testing.T, storageDir, version string) int {
	t.Helper()
	count := 0
	root := filepath.Join(storageDir, version)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".body") {
			count++
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("walk storage: %v", err)
	}
	return count
}
