package routeclass

import (
	"testing"

	"github.com/offline-hub/offline-hub/internal/config"
)

func testRouting() config.RoutingConfig {
	return config.RoutingConfig{
		BypassHosts:            []string{"plausible.io"},
		BypassHostSuffixes:     []string{".plausible.io"},
		ImmutableHosts:         []string{"fonts.gstatic.com"},
		StylesheetHosts:        []string{"fonts.googleapis.com"},
		NetworkFirstExtensions: []string{".csv"},
		NetworkFirstSegments:   []string{"/latest/"},
	}
}

func TestClassifyPrecedence(t *testing.T) {
	classifier := NewClassifier(testRouting())

	cases := []struct {
		name string
		host string
		path string
		want Class
	}{
		{"exact bypass", "plausible.io", "/api/event", ClassBypass},
		{"suffix bypass", "stats.plausible.io", "/js/script.js", ClassBypass},
		{"immutable font", "fonts.gstatic.com", "/s/amiri/v27/font.woff2", ClassImmutable},
		{"stylesheet", "fonts.googleapis.com", "/css2", ClassStylesheet},
		{"csv data", "salat.example.org", "/data/timetable.csv", ClassNetworkFirst},
		{"csv is case-insensitive", "salat.example.org", "/data/TIMETABLE.CSV", ClassNetworkFirst},
		{"latest image", "salat.example.org", "/latest/lockscreen.png", ClassNetworkFirst},
		{"shell page", "salat.example.org", "/index.html", ClassDefault},
		{"root", "salat.example.org", "/", ClassDefault},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifier.Classify(tc.host, tc.path); got != tc.want {
				t.Fatalf("Classify(%s, %s) = %s, want %s", tc.host, tc.path, got, tc.want)
			}
		})
	}
}

// 字体主机同时出现在 network-first 的路径规则里时必须仍按 immutable 处理。
func TestClassifyHostRulesBeatPathRules(t *testing.T) {
	classifier := NewClassifier(testRouting())
	if got := classifier.Classify("fonts.gstatic.com", "/latest/font.csv"); got != ClassImmutable {
		t.Fatalf("主机规则应优先于路径规则，got %s", got)
	}
}

func TestClassifyNormalizesHost(t *testing.T) {
	classifier := NewClassifier(testRouting())
	if got := classifier.Classify("Fonts.GSTATIC.com:443", "/s/x.woff2"); got != ClassImmutable {
		t.Fatalf("主机名大小写与端口应被归一化, got %s", got)
	}
	if got := classifier.Classify("plausible.io.", "/api/event"); got != ClassBypass {
		t.Fatalf("尾部点应被归一化, got %s", got)
	}
}

func TestClassifySuffixDoesNotMatchUnrelatedHost(t *testing.T) {
	classifier := NewClassifier(testRouting())
	if got := classifier.Classify("notplausible.io", "/api/event"); got == ClassBypass {
		t.Fatalf("无关主机不应命中 bypass 后缀")
	}
}

func TestRegistryHasAllFiveClasses(t *testing.T) {
	for _, key := range []Class{ClassBypass, ClassImmutable, ClassStylesheet, ClassNetworkFirst, ClassDefault} {
		meta, ok := Resolve(key)
		if !ok {
			t.Fatalf("route class %s 未注册", key)
		}
		if meta.Key != key {
			t.Fatalf("registry key mismatch: %s", meta.Key)
		}
	}
	if meta, _ := Resolve(ClassBypass); meta.TouchesStore {
		t.Fatalf("bypass 不应标记为读写缓存")
	}
}
