package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供 host/路由类/命中状态字段，供网关请求日志复用。
func RequestFields(host, path, class string, cacheHit bool) logrus.Fields {
	return logrus.Fields{
		"host":        host,
		"path":        path,
		"route_class": class,
		"cache_hit":   cacheHit,
	}
}

// LifecycleFields 提供 install/activate 阶段的公共字段。
func LifecycleFields(action, version string) logrus.Fields {
	return logrus.Fields{
		"action":  action,
		"version": version,
	}
}
