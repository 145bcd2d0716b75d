package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/offline-hub/offline-hub/internal/cache"
	"github.com/offline-hub/offline-hub/internal/config"
	"github.com/offline-hub/offline-hub/internal/lifecycle"
	"github.com/offline-hub/offline-hub/internal/logging"
	"github.com/offline-hub/offline-hub/internal/proxy"
	"github.com/offline-hub/offline-hub/internal/routeclass"
	"github.com/offline-hub/offline-hub/internal/server"
	"github.com/offline-hub/offline-hub/internal/server/routes"
	"github.com/offline-hub/offline-hub/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	installOnly bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["cache_version"] = cfg.Global.CacheVersion
		fields["precache"] = len(cfg.Precache)
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// 启动遵循“配置 → 缓存代 → install → activate → Fiber server”顺序：
	// 预热失败直接放弃本次启动，旧实例（及其缓存代）不受影响。
	store, err := cache.NewStore(cfg.Global.StoragePath, cfg.Global.CacheVersion)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化缓存目录失败: %v\n", err)
		return 1
	}

	resolver, err := server.NewUpstreamResolver(cfg)
	if err != nil {
		fmt.Fprintf(stdErr, "解析 OriginUpstream 失败: %v\n", err)
		return 1
	}

	httpClient := server.NewUpstreamClient(cfg)

	worker, err := lifecycle.New(lifecycle.Options{
		Client:   httpClient,
		Logger:   logger,
		Store:    store,
		Resolver: resolver,
		Precache: cfg.Precache,
	})
	if err != nil {
		fmt.Fprintf(stdErr, "构建生命周期 Worker 失败: %v\n", err)
		return 1
	}

	ctx := context.Background()
	if err := worker.Install(ctx); err != nil {
		fmt.Fprintf(stdErr, "预缓存安装失败: %v\n", err)
		return 1
	}
	if err := worker.Activate(ctx); err != nil {
		fmt.Fprintf(stdErr, "缓存代激活失败: %v\n", err)
		return 1
	}
	if opts.installOnly {
		logger.WithFields(logging.LifecycleFields("install_only", cfg.Global.CacheVersion)).Info("安装并激活完成")
		return 0
	}

	classifier := routeclass.NewClassifier(cfg.Routing)
	proxyHandler := proxy.NewHandler(proxy.Options{
		Client:     httpClient,
		Logger:     logger,
		Store:      store,
		Classifier: classifier,
		Resolver:   resolver,
	})

	fields := logging.BaseFields("startup", opts.configPath)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["cache_version"] = cfg.Global.CacheVersion
	fields["origin"] = cfg.Global.OriginUpstream
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(cfg, store, proxyHandler, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("offline-hub", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag  string
		checkOnly   bool
		installOnly bool
		showVer     bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 OFFLINE_HUB_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&installOnly, "install-only", false, "仅执行预缓存安装与激活后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("OFFLINE_HUB_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		installOnly: installOnly,
		showVersion: showVer,
	}, nil
}

func startHTTPServer(cfg *config.Config, store cache.Store, proxyHandler server.ProxyHandler, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Proxy:      proxyHandler,
		ListenPort: port,
	})
	if err != nil {
		return err
	}
	routes.RegisterCacheRoutes(app, store, cfg)

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}
