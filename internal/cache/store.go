package cache

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"
)

// Store 负责管理某一个缓存代（generation）的读写。磁盘布局遵循：
//
//	<StoragePath>/<version>/<host>/<path>.body    # 响应正文
//	<StoragePath>/<version>/<host>/<path>.meta    # 状态码与响应头（JSON）
//
// 同一时刻只有一个代是有效的，代名即配置里的版本标签；旧代由激活流程整体删除。
type Store interface {
	// Get 返回一个可流式读取的缓存条目。若不存在则返回 ErrNotFound。
	// 正文与元数据任一缺失都视为未命中，保证条目要么完整要么不可见。
	Get(ctx context.Context, locator Locator) (*ReadResult, error)

	// Put 将一次网络响应写入当前代，并产出新的 Entry 描述。实现需通过临时文件 +
	// rename 保证写入原子性，并在失败时清理临时文件。
	Put(ctx context.Context, locator Locator, resp StoredResponse, body io.Reader, opts PutOptions) (*Entry, error)

	// Remove 删除条目（正文与元数据），用于上游错误后的清理。
	Remove(ctx context.Context, locator Locator) error

	// Version 返回当前代的版本标签。
	Version() string

	// Generations 枚举存储根目录下所有代的名字，顺序不保证。
	Generations() ([]string, error)

	// DropGeneration 整体删除一个代。删除当前代是合法操作，随后写入会重建目录。
	DropGeneration(name string) error
}

// PutOptions 控制写入过程中的可选属性。
type PutOptions struct {
	ModTime time.Time
}

// Locator 唯一定位一个缓存条目（主机 + 路径 + 查询串）。
// 只有 GET 响应会被存储，因此 method 不参与定位。
type Locator struct {
	Host  string
	Path  string
	Query string
}

// StoredResponse 是写入时需要随正文一起保存的响应元数据。
type StoredResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
}

// Entry 表示一次缓存命中结果，包含绝对文件路径及响应元数据。
type Entry struct {
	Locator   Locator
	FilePath  string
	SizeBytes int64
	ModTime   time.Time
	Status    int
	Header    http.Header
}

// ReadResult 组合 Entry 与正文 Reader，便于网关层直接将 Body 流式返回。
type ReadResult struct {
	Entry  Entry
	Reader io.ReadSeekCloser
}

// ErrNotFound 表示缓存不存在。
var ErrNotFound = errors.New("cache entry not found")
