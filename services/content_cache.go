package services

// 本地剪贴板内容缓存模块
//
// 持有"此刻本地剪贴板上有什么"的唯一一份受保护状态。
// 只有剪贴板变化钩子会写入，通告协程和传输服务只读取，
// 其他组件不直接访问

import (
	"sync"

	"github.com/JuniFruit/CopyXross/entities"
)

// ContentCache 缓存本地剪贴板的当前内容及其描述记录
type ContentCache struct {
	// 控制对下面字段的并发访问
	mutex sync.Mutex
	// 是否有内容
	present bool
	// 当前内容
	content entities.Content
	// 当前内容的描述记录，content 变化时整体重算替换
	descriptor entities.ContentDescriptor
}

// NewContentCache 创建一个空的内容缓存
func NewContentCache() *ContentCache {
	return &ContentCache{}
}

// Set 替换缓存的内容，并重新计算描述记录
func (cc *ContentCache) Set(content entities.Content) {
	descriptor := entities.DescribeContent(content)
	cc.mutex.Lock()
	defer cc.mutex.Unlock()
	cc.present = true
	cc.content = content
	cc.descriptor = descriptor
}

// Clear 清空缓存 (本地剪贴板没有内容时)
func (cc *ContentCache) Clear() {
	cc.mutex.Lock()
	defer cc.mutex.Unlock()
	cc.present = false
	cc.content = entities.Content{}
	cc.descriptor = entities.ContentDescriptor{}
}

// Descriptor 返回当前内容的描述记录，没有内容时第二个返回值为 false
func (cc *ContentCache) Descriptor() (entities.ContentDescriptor, bool) {
	cc.mutex.Lock()
	defer cc.mutex.Unlock()
	return cc.descriptor, cc.present
}

// Snapshot 返回当前内容和描述记录的一致快照
//
// 传输服务按该快照发送，保证描述记录总是与实际发送的字节一致，
// 即使剪贴板在通告之后、拉取完成之前发生了变化
func (cc *ContentCache) Snapshot() (entities.Content, entities.ContentDescriptor, bool) {
	cc.mutex.Lock()
	defer cc.mutex.Unlock()
	return cc.content, cc.descriptor, cc.present
}
