package entities

// 错误分类定义
//
// 传输路径上的错误统一归入这些哨兵错误，上层用 errors.Is 判断类别，
// 不会把原始堆栈直接暴露给 UI 层

import (
	"errors"
	"fmt"
)

var (
	// ErrNetworkUnavailable 套接字绑定 / 发送失败，服务会定时重试，不会终止进程
	ErrNetworkUnavailable = errors.New("network unavailable")
	// ErrPeerUnreachable 拉取时连接失败或超时
	ErrPeerUnreachable = errors.New("peer unreachable")
	// ErrContentUnavailable 对端当前没有内容，或内容在传输中途被替换
	ErrContentUnavailable = errors.New("no content available")
	// ErrChecksumMismatch 收到的内容字节与描述记录的摘要不一致
	ErrChecksumMismatch = errors.New("content checksum mismatch")
	// ErrBusy 同一对端已有未结束的会话
	ErrBusy = errors.New("a transfer for this peer is already active")
	// ErrProtocolError 收到无法解析的协议数据
	ErrProtocolError = errors.New("malformed protocol data")
	// ErrClipboardEmpty 本地剪贴板当前没有内容
	ErrClipboardEmpty = errors.New("clipboard is empty")
)

// ErrUnknownPeer 注册表中没有该对端 (通告从未到达或已过期被清出)。
// 对上层来说这和对端不可达是同一类失败，所以归入 ErrPeerUnreachable
var ErrUnknownPeer = fmt.Errorf("%w: unknown peer", ErrPeerUnreachable)
