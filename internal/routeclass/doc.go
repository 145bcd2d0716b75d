// Package routeclass 把每个被拦截的请求按主机名与路径分到五个路由类之一，
// 并维护路由类元数据的注册表。
//
// 分类是纯函数：输入只有 host 与 path，输出是一个 Class，不依赖任何运行时
// 状态。五个类的求值顺序固定（bypass 最先、default 兜底），配置只提供各类
// 的字面量匹配表，不改变顺序。诊断端通过注册表查询各类的策略说明。
package routeclass
