package protocol

// 传输响应编码模块
//
// TCP 响应格式: [ 1 字节状态码 ]，状态为 StatusOK 时后跟一个 XDSC
// 内容描述块和恰好 ByteSize 字节的原始内容。

import (
	"fmt"
	"io"

	"github.com/JuniFruit/CopyXross/entities"
)

// 传输响应状态码
const (
	// StatusOK 接受请求，后跟描述块和内容字节
	StatusOK byte = 0x00
	// StatusNoContent 当前没有可拉取的内容
	StatusNoContent byte = 0x01
	// StatusBusy 该请求方已有未结束的会话
	StatusBusy byte = 0x02
	// StatusError 服务端内部错误
	StatusError byte = 0x03
)

// encodeDescriptorFields 把内容描述的各字段追加到写入器
//
// 编码格式: [ 1 字节类型 | 8 字节大端内容长度 | 32 字节 SHA-256 摘要 |
// 2 字节大端文件名长度 | 文件名 ]
func encodeDescriptorFields(cw *chunkWriter, d entities.ContentDescriptor) error {
	if len(d.Filename) > 0xFFFF {
		return fmt.Errorf("filename too long: %d bytes", len(d.Filename))
	}
	cw.writeByte(byte(d.Kind))
	cw.writeUint64(uint64(d.ByteSize))
	cw.buf = append(cw.buf, d.Checksum[:]...)
	cw.writeUint16(uint16(len(d.Filename)))
	cw.buf = append(cw.buf, d.Filename...)
	return nil
}

// decodeDescriptorFields 从读取器中解码内容描述的各字段
func decodeDescriptorFields(cr *chunkReader) (entities.ContentDescriptor, error) {
	var d entities.ContentDescriptor
	kind, err := cr.readByte()
	if err != nil {
		return d, err
	}
	d.Kind = entities.ContentKind(kind)
	if !d.Kind.Valid() {
		return d, fmt.Errorf("%w: unknown content kind 0x%02x", entities.ErrProtocolError, kind)
	}
	size, err := cr.readUint64()
	if err != nil {
		return d, err
	}
	d.ByteSize = int64(size)
	checksum, err := cr.readBytes(entities.ChecksumSize)
	if err != nil {
		return d, err
	}
	copy(d.Checksum[:], checksum)
	nameLen, err := cr.readUint16()
	if err != nil {
		return d, err
	}
	name, err := cr.readBytes(int(nameLen))
	if err != nil {
		return d, err
	}
	d.Filename = string(name)
	return d, nil
}

// EncodeDescriptorChunk 把内容描述编码为完整的 XDSC 块
func EncodeDescriptorChunk(d entities.ContentDescriptor) ([]byte, error) {
	body := &chunkWriter{}
	if err := encodeDescriptorFields(body, d); err != nil {
		return nil, err
	}
	out := &chunkWriter{}
	out.writeChunk(TagDescriptor, body.buf)
	return out.buf, nil
}

// ReadChunkFrom 从字节流中读取一个完整的块，返回其标签和数据
//
// maxSize 限制块数据的最大长度，超过时视为协议错误，防止恶意长度字段
// 导致超大内存分配
func ReadChunkFrom(r io.Reader, maxSize int) (string, []byte, error) {
	head := make([]byte, tagSize+lengthSize)
	if _, err := io.ReadFull(r, head); err != nil {
		return "", nil, fmt.Errorf("%w: reading chunk header: %w", entities.ErrProtocolError, err)
	}
	cr := &chunkReader{data: head}
	tag, _ := cr.readTag()
	size, _ := cr.readSize()
	if size > maxSize {
		return "", nil, fmt.Errorf("%w: chunk length %d exceeds limit %d",
			entities.ErrProtocolError, size, maxSize)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return "", nil, fmt.Errorf("%w: reading chunk payload: %w", entities.ErrProtocolError, err)
	}
	return tag, payload, nil
}

// ReadDescriptorChunkFrom 从字节流中读取一个 XDSC 块并解码
func ReadDescriptorChunkFrom(r io.Reader) (entities.ContentDescriptor, error) {
	tag, payload, err := ReadChunkFrom(r, 0xFFFF+entities.ChecksumSize+16)
	if err != nil {
		return entities.ContentDescriptor{}, err
	}
	if tag != TagDescriptor {
		return entities.ContentDescriptor{}, fmt.Errorf("%w: expected tag %q, got %q",
			entities.ErrProtocolError, TagDescriptor, tag)
	}
	return decodeDescriptorFields(&chunkReader{data: payload})
}

// ReadMessageFrom 从字节流中读取一个完整的消息 (签名块及其内容) 并解析
//
// 用于 TCP 连接上的请求读取，组播数据报则直接用 Parse
func ReadMessageFrom(r io.Reader, maxSize int) (Message, error) {
	tag, payload, err := ReadChunkFrom(r, maxSize)
	if err != nil {
		return nil, err
	}
	if tag != TagSignature {
		return nil, fmt.Errorf("%w: expected tag %q, got %q", entities.ErrProtocolError, TagSignature, tag)
	}
	// 重新拼回完整消息交给 Parse，保持单一解析路径
	out := &chunkWriter{}
	out.writeChunk(TagSignature, payload)
	return Parse(out.buf)
}
