// Package clipboard 提供本机剪贴板的读写抽象与变化监视
//
// 核心同步逻辑只依赖这里的接口，不同平台的剪贴板后端可以独立接入
package clipboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/JuniFruit/CopyXross/configs"
	"github.com/JuniFruit/CopyXross/entities"
)

// Clipboard 本机剪贴板的读写接口
type Clipboard interface {
	// Read 读取当前剪贴板内容，剪贴板为空时返回 ErrClipboardEmpty
	Read() (entities.Content, error)
	// Write 把内容写入剪贴板
	Write(content entities.Content) error
}

// ContentSink 剪贴板变化的接收方
//
// 由内容缓存实现，监视协程把本机剪贴板的最新内容推给它
type ContentSink interface {
	Set(content entities.Content)
	Clear()
}

// Memory 内存剪贴板实现
//
// 不依赖任何系统剪贴板设施，可以独立运行，也用于测试
type Memory struct {
	mutex   sync.Mutex
	present bool
	content entities.Content
}

// NewMemory 创建空的内存剪贴板
func NewMemory() *Memory {
	return &Memory{}
}

// Read 读取当前内容
func (m *Memory) Read() (entities.Content, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !m.present {
		return entities.Content{}, entities.ErrClipboardEmpty
	}
	return m.content, nil
}

// Write 写入内容
func (m *Memory) Write(content entities.Content) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.content = content
	m.present = true
	return nil
}

// Clear 清空剪贴板
func (m *Memory) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.content = entities.Content{}
	m.present = false
}

// Watch 启动剪贴板监视协程
//
// 周期性轮询剪贴板，内容发生变化时推给 sink。按完整描述记录比对
// (类型、字节数、摘要、文件名)，完全相同的内容不会重复触发
func Watch(cp Clipboard, sink ContentSink, sigCtx context.Context) {
	ticker := time.NewTicker(time.Duration(configs.GetClipboardPollInterval()) * time.Second)
	defer ticker.Stop()
	var lastDescriptor entities.ContentDescriptor
	var hasLast bool
	poll := func() {
		content, err := cp.Read()
		if err != nil {
			// 剪贴板为空
			if hasLast {
				hasLast = false
				sink.Clear()
				slog.Debug("Clipboard cleared")
			}
			return
		}
		descriptor := entities.DescribeContent(content)
		if hasLast && descriptor == lastDescriptor {
			return
		}
		lastDescriptor = descriptor
		hasLast = true
		sink.Set(content)
		slog.Debug("Clipboard content changed", "kind", content.Kind.String(), "bytes", len(content.Data))
	}
	poll()
	for {
		select {
		case <-sigCtx.Done():
			slog.Debug("Clipboard watcher exiting gracefully")
			return
		case <-ticker.C:
			poll()
		}
	}
}
