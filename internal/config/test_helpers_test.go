package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}

func validConfigBody() string {
	return `
ListenPort = 5000
LogLevel = "info"
StoragePath = "./storage"
CacheVersion = "v3"
OriginUpstream = "https://salat.example.org"
UpstreamTimeout = "30s"
Precache = ["./", "./index.html", "./icons/icon-192.png"]

[Routing]
BypassHosts = ["plausible.io"]
BypassHostSuffixes = ["plausible.io"]
ImmutableHosts = ["fonts.gstatic.com"]
StylesheetHosts = ["fonts.googleapis.com"]
NetworkFirstExtensions = ["csv"]
NetworkFirstSegments = ["/latest/"]
`
}
