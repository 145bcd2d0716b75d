package routeclass

func init() {
	MustRegister(ClassMetadata{
		Key:         ClassBypass,
		Description: "统计/埋点域名直连网络，响应与失败均原样透传",
		Strategy:    StrategyPassthrough,
	})
	MustRegister(ClassMetadata{
		Key:          ClassImmutable,
		Description:  "内容寻址的字体二进制等不可变资源，命中即终身复用",
		Strategy:     StrategyCacheFirst,
		TouchesStore: true,
	})
	MustRegister(ClassMetadata{
		Key:          ClassStylesheet,
		Description:  "样式表主机：先回缓存副本，后台刷新下次使用",
		Strategy:     StrategyStaleWhileRevalidate,
		TouchesStore: true,
	})
	MustRegister(ClassMetadata{
		Key:          ClassNetworkFirst,
		Description:  "时刻表数据与当日图片：联网时保证最新，离线回退缓存",
		Strategy:     StrategyNetworkFirst,
		TouchesStore: true,
	})
	MustRegister(ClassMetadata{
		Key:          ClassDefault,
		Description:  "其余请求的兜底 stale-while-revalidate",
		Strategy:     StrategyStaleWhileRevalidate,
		TouchesStore: true,
	})
}
