// Package lifecycle 驱动缓存代的安装与激活，对应拦截层上线时的两个一次性
// 阶段：install 把固定清单里的站点外壳抓进当前代（任一失败则整体作废，
// 旧代继续服务），activate 删除所有旧代，保证激活完成后磁盘上至多保留一代。
package lifecycle
