package entities

// 剪贴板内容相关实体

import (
	"crypto/sha256"
	"fmt"
)

// ContentKind 表示剪贴板内容的类型
type ContentKind byte

const (
	// ContentKindText 文本内容
	ContentKindText ContentKind = 0x01
	// ContentKindFile 单个文件内容
	ContentKindFile ContentKind = 0x02
)

// String 返回内容类型的可读名称
func (ck ContentKind) String() string {
	switch ck {
	case ContentKindText:
		return "text"
	case ContentKindFile:
		return "file"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(ck))
	}
}

// Valid 判断内容类型是否为已知类型
func (ck ContentKind) Valid() bool {
	return ck == ContentKindText || ck == ContentKindFile
}

// ChecksumSize 为内容摘要的固定长度 (SHA-256)
const ChecksumSize = sha256.Size

// ContentDescriptor 描述"此刻剪贴板上有什么"的元数据记录
//
// 不携带内容本身，内容只在对端发起拉取时按需传输。
// 构造后不可变，本地剪贴板变化时整体替换。
type ContentDescriptor struct {
	// 内容类型
	Kind ContentKind
	// 内容字节数
	ByteSize int64
	// 内容的 SHA-256 摘要
	Checksum [ChecksumSize]byte
	// 文件名，仅文件类型内容有效
	Filename string
}

// Content 为一份完整的剪贴板内容 (类型 + 字节 + 可选文件名)
type Content struct {
	Kind     ContentKind
	Data     []byte
	Filename string
}

// DescribeContent 根据内容计算其描述记录
func DescribeContent(c Content) ContentDescriptor {
	return ContentDescriptor{
		Kind:     c.Kind,
		ByteSize: int64(len(c.Data)),
		Checksum: sha256.Sum256(c.Data),
		Filename: c.Filename,
	}
}

// Matches 判断给定内容的摘要是否和描述记录一致
func (cd ContentDescriptor) Matches(data []byte) bool {
	if int64(len(data)) != cd.ByteSize {
		return false
	}
	return sha256.Sum256(data) == cd.Checksum
}
