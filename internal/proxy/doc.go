// Package proxy 实现拦截层的策略路由：每个请求先经 routeclass 分类，再交给
// 四种策略之一（直连、缓存优先、stale-while-revalidate、网络优先）执行。
//
// 失败语义是本包的核心契约：bypass 类请求的网络失败原样上抛；带回退的层级
// 把传输层失败就地消化、改为回放缓存；后台刷新的任何失败都被吞掉，只通过
// 可选的 onRevalidated 回调对测试可见。整个包没有任何重试逻辑——每次分类
// 决策只发起一次网络请求。
package proxy
