package protocol

// 块编码基础模块
//
// 协议松散基于 IFF 文件编码: 消息由块组成，每个块为
// [ 4 字节 ASCII 标签 | 4 字节大端长度 | 数据 ]。
// 解析方遇到未知标签的块会整块跳过，保证向前兼容。

import (
	"encoding/binary"
	"fmt"

	"github.com/JuniFruit/CopyXross/entities"
)

const (
	// 块标签长度
	tagSize = 4
	// 块长度字段长度
	lengthSize = 4
)

// 块标签定义
const (
	// TagSignature 消息签名块，包裹整个消息
	TagSignature = "XCOP"
	// TagVersion 协议版本块
	TagVersion = "XVER"
	// TagAnnounce 存在通告块
	TagAnnounce = "XACN"
	// TagGoodbye 下线告别块
	TagGoodbye = "XDIS"
	// TagPull 拉取请求块
	TagPull = "XCPY"
	// TagDescriptor 内容描述块
	TagDescriptor = "XDSC"
)

// chunkReader 在字节切片上按块读取，带边界检查
type chunkReader struct {
	data []byte
	off  int
}

// remaining 返回尚未读取的字节数
func (cr *chunkReader) remaining() int {
	return len(cr.data) - cr.off
}

// checkBounds 检查是否还有 size 字节可读
func (cr *chunkReader) checkBounds(size int) error {
	if cr.remaining() < size {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			entities.ErrProtocolError, size, cr.off, cr.remaining())
	}
	return nil
}

// readTag 读取一个 4 字节块标签
func (cr *chunkReader) readTag() (string, error) {
	if err := cr.checkBounds(tagSize); err != nil {
		return "", err
	}
	tag := string(cr.data[cr.off : cr.off+tagSize])
	cr.off += tagSize
	return tag, nil
}

// readTagExpected 读取块标签并检查其是否为期望值
func (cr *chunkReader) readTagExpected(expected string) error {
	tag, err := cr.readTag()
	if err != nil {
		return err
	}
	if tag != expected {
		return fmt.Errorf("%w: expected tag %q, got %q", entities.ErrProtocolError, expected, tag)
	}
	return nil
}

// readSize 读取一个 4 字节大端长度字段
func (cr *chunkReader) readSize() (int, error) {
	if err := cr.checkBounds(lengthSize); err != nil {
		return 0, err
	}
	size := binary.BigEndian.Uint32(cr.data[cr.off : cr.off+lengthSize])
	cr.off += lengthSize
	return int(size), nil
}

// readBytes 读取 size 字节的数据
func (cr *chunkReader) readBytes(size int) ([]byte, error) {
	if err := cr.checkBounds(size); err != nil {
		return nil, err
	}
	b := cr.data[cr.off : cr.off+size]
	cr.off += size
	return b, nil
}

// readByte 读取单个字节
func (cr *chunkReader) readByte() (byte, error) {
	if err := cr.checkBounds(1); err != nil {
		return 0, err
	}
	b := cr.data[cr.off]
	cr.off++
	return b, nil
}

// readUint16 读取一个 2 字节大端整数
func (cr *chunkReader) readUint16() (uint16, error) {
	if err := cr.checkBounds(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(cr.data[cr.off : cr.off+2])
	cr.off += 2
	return v, nil
}

// readUint64 读取一个 8 字节大端整数
func (cr *chunkReader) readUint64() (uint64, error) {
	if err := cr.checkBounds(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(cr.data[cr.off : cr.off+8])
	cr.off += 8
	return v, nil
}

// readShortString 读取一个 1 字节长度前缀的短字符串
func (cr *chunkReader) readShortString() (string, error) {
	strLen, err := cr.readByte()
	if err != nil {
		return "", err
	}
	b, err := cr.readBytes(int(strLen))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// chunkWriter 按块追加编码数据
type chunkWriter struct {
	buf []byte
}

// writeTag 写入一个 4 字节块标签
func (cw *chunkWriter) writeTag(tag string) {
	cw.buf = append(cw.buf, tag...)
}

// writeSize 写入一个 4 字节大端长度字段
func (cw *chunkWriter) writeSize(size int) {
	cw.buf = binary.BigEndian.AppendUint32(cw.buf, uint32(size))
}

// writeChunk 写入一个完整的块 (标签 + 长度 + 数据)
func (cw *chunkWriter) writeChunk(tag string, data []byte) {
	cw.writeTag(tag)
	cw.writeSize(len(data))
	cw.buf = append(cw.buf, data...)
}

// writeByte 写入单个字节
func (cw *chunkWriter) writeByte(b byte) {
	cw.buf = append(cw.buf, b)
}

// writeUint32 写入一个 4 字节大端整数
func (cw *chunkWriter) writeUint32(v uint32) {
	cw.buf = binary.BigEndian.AppendUint32(cw.buf, v)
}

// writeUint16 写入一个 2 字节大端整数
func (cw *chunkWriter) writeUint16(v uint16) {
	cw.buf = binary.BigEndian.AppendUint16(cw.buf, v)
}

// writeUint64 写入一个 8 字节大端整数
func (cw *chunkWriter) writeUint64(v uint64) {
	cw.buf = binary.BigEndian.AppendUint64(cw.buf, v)
}

// writeShortString 写入一个 1 字节长度前缀的短字符串
func (cw *chunkWriter) writeShortString(s string) error {
	if len(s) > 0xFF {
		return fmt.Errorf("string too long for short encoding: %d bytes", len(s))
	}
	cw.writeByte(byte(len(s)))
	cw.buf = append(cw.buf, s...)
	return nil
}
