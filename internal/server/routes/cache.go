package routes

import (
	"sort"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/offline-hub/offline-hub/internal/cache"
	"github.com/offline-hub/offline-hub/internal/config"
	"github.com/offline-hub/offline-hub/internal/routeclass"
)

// RegisterCacheRoutes 暴露 /-/cache 诊断接口，供运维查询当前缓存代、
// 路由类定义与预缓存清单。
func RegisterCacheRoutes(app *fiber.App, store cache.Store, cfg *config.Config) {
	if app == nil || store == nil || cfg == nil {
		return
	}

	app.Get("/-/cache", func(c fiber.Ctx) error {
		generations, err := store.Generations()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "generations_unavailable"})
		}
		sort.Strings(generations)

		payload := fiber.Map{
			"version":     store.Version(),
			"generations": generations,
			"classes":     encodeClasses(routeclass.List()),
			"precache":    cfg.Precache,
			"routing":     encodeRouting(cfg.Routing),
		}
		return c.JSON(payload)
	})

	app.Get("/-/cache/classes/:key", func(c fiber.Ctx) error {
		key := strings.ToLower(strings.TrimSpace(c.Params("key")))
		if key == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "class_key_required"})
		}
		meta, ok := routeclass.Resolve(routeclass.Class(key))
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "class_not_found"})
		}
		return c.JSON(encodeClass(meta))
	})
}

type classPayload struct {
	Key          string `json:"key"`
	Description  string `json:"description"`
	Strategy     string `json:"strategy"`
	TouchesStore bool   `json:"touches_store"`
}

type routingPayload struct {
	BypassHosts            []string `json:"bypass_hosts"`
	BypassHostSuffixes     []string `json:"bypass_host_suffixes"`
	ImmutableHosts         []string `json:"immutable_hosts"`
	StylesheetHosts        []string `json:"stylesheet_hosts"`
	NetworkFirstExtensions []string `json:"network_first_extensions"`
	NetworkFirstSegments   []string `json:"network_first_segments"`
}

func encodeClasses(classes []routeclass.ClassMetadata) []classPayload {
	if len(classes) == 0 {
		return nil
	}
	result := make([]classPayload, 0, len(classes))
	for _, meta := range classes {
		result = append(result, encodeClass(meta))
	}
	return result
}

func encodeClass(meta routeclass.ClassMetadata) classPayload {
	return classPayload{
		Key:          string(meta.Key),
		Description:  meta.Description,
		Strategy:     string(meta.Strategy),
		TouchesStore: meta.TouchesStore,
	}
}

func encodeRouting(r config.RoutingConfig) routingPayload {
	return routingPayload{
		BypassHosts:            r.BypassHosts,
		BypassHostSuffixes:     r.BypassHostSuffixes,
		ImmutableHosts:         r.ImmutableHosts,
		StylesheetHosts:        r.StylesheetHosts,
		NetworkFirstExtensions: r.NetworkFirstExtensions,
		NetworkFirstSegments:   r.NetworkFirstSegments,
	}
}
