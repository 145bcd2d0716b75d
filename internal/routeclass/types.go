package routeclass

// Class 标识一个请求被分到的路由类，五个类的优先顺序是固定契约。
type Class string

const (
	// ClassBypass 直连网络，读写都不碰缓存，失败原样向上抛。
	ClassBypass Class = "bypass"
	// ClassImmutable 缓存优先：字体等内容寻址资源永不变更，可无限期缓存。
	ClassImmutable Class = "immutable"
	// ClassStylesheet 先回旧值再后台刷新，专用于样式表主机。
	ClassStylesheet Class = "stylesheet"
	// ClassNetworkFirst 网络优先：时刻表/当日图片等频繁变化的数据。
	ClassNetworkFirst Class = "network-first"
	// ClassDefault 兜底的 stale-while-revalidate。
	ClassDefault Class = "default"
)

// StrategyKind 描述路由类背后的缓存策略，供诊断端与日志输出。
type StrategyKind string

const (
	StrategyPassthrough          StrategyKind = "passthrough"
	StrategyCacheFirst           StrategyKind = "cache-first"
	StrategyStaleWhileRevalidate StrategyKind = "stale-while-revalidate"
	StrategyNetworkFirst         StrategyKind = "network-first"
)

// ClassMetadata 记录一个路由类的静态信息，供诊断端使用。
type ClassMetadata struct {
	Key         Class
	Description string
	Strategy    StrategyKind
	// TouchesStore 为 false 时该类的请求绝不读写缓存。
	TouchesStore bool
}
