package protocol

// 消息组装与解析模块
//
// 每个消息以签名块 XCOP 开头，其长度覆盖剩余所有块；随后是协议版本块
// XVER 和消息体块。解析时按块顺序扫描，未知块整块跳过。

import (
	"fmt"
	"unicode/utf8"

	"github.com/JuniFruit/CopyXross/entities"
)

// ProtocolVersion 为当前协议版本
const ProtocolVersion uint32 = 1

// 通告中文件名的最大编码字节数。通告数据报必须装进监听方的读取缓冲区，
// 文件名超长时只通告截断后的提示，权威文件名随拉取响应的描述块下发
const maxAnnounceFilenameBytes = 1024

// Message 为可在对端间传递的一种协议消息
type Message interface {
	tag() string
	encodeBody(cw *chunkWriter) error
}

// Announcement 存在通告: 周期性组播，宣告本机身份、传输端口和当前剪贴板描述
type Announcement struct {
	// 对端唯一标识符
	PeerID string
	// 展示名称 (主机名)
	DisplayName string
	// 传输服务监听端口
	TransferPort uint16
	// 当前剪贴板内容描述，nil 表示没有可拉取的内容
	Descriptor *entities.ContentDescriptor
}

func (a *Announcement) tag() string { return TagAnnounce }

func (a *Announcement) encodeBody(cw *chunkWriter) error {
	if err := cw.writeShortString(a.PeerID); err != nil {
		return fmt.Errorf("encoding peer id: %w", err)
	}
	if err := cw.writeShortString(a.DisplayName); err != nil {
		return fmt.Errorf("encoding display name: %w", err)
	}
	cw.writeUint16(a.TransferPort)
	if a.Descriptor == nil {
		cw.writeByte(0)
		return nil
	}
	cw.writeByte(1)
	descriptor := *a.Descriptor
	descriptor.Filename = truncateFilename(descriptor.Filename, maxAnnounceFilenameBytes)
	return encodeDescriptorFields(cw, descriptor)
}

// truncateFilename 把文件名截断到 limit 字节以内，不切开多字节字符
func truncateFilename(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	cut := name[:limit]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}

// Goodbye 下线告别: 进程优雅退出时发送，让对端立即移除本机，不必等存活窗口过期
type Goodbye struct {
	PeerID string
}

func (g *Goodbye) tag() string { return TagGoodbye }

func (g *Goodbye) encodeBody(cw *chunkWriter) error {
	return cw.writeShortString(g.PeerID)
}

// PullRequest 拉取请求: 通过 TCP 发给对端，请求其当前剪贴板内容
type PullRequest struct {
	// 请求方的对端标识符
	PeerID string
	// 单调递增的请求序号，用于幂等重试去重
	Seq uint64
}

func (p *PullRequest) tag() string { return TagPull }

func (p *PullRequest) encodeBody(cw *chunkWriter) error {
	if err := cw.writeShortString(p.PeerID); err != nil {
		return err
	}
	cw.writeUint64(p.Seq)
	return nil
}

// Compose 把消息编码为完整的字节序列 (签名块 + 版本块 + 消息体块)
func Compose(msg Message) ([]byte, error) {
	body := &chunkWriter{}
	if err := msg.encodeBody(body); err != nil {
		return nil, err
	}

	inner := &chunkWriter{}
	verData := &chunkWriter{}
	verData.writeUint32(ProtocolVersion)
	inner.writeChunk(TagVersion, verData.buf)
	inner.writeChunk(msg.tag(), body.buf)

	out := &chunkWriter{}
	out.writeChunk(TagSignature, inner.buf)
	return out.buf, nil
}

// Parse 解析一个完整的消息字节序列，返回其中的消息体
//
// 对签名块之后的块按顺序扫描，未知标签的块整块跳过。
// 解析失败的错误都会包装 entities.ErrProtocolError。
func Parse(data []byte) (Message, error) {
	cr := &chunkReader{data: data}
	if err := cr.readTagExpected(TagSignature); err != nil {
		return nil, err
	}
	msgSize, err := cr.readSize()
	if err != nil {
		return nil, err
	}
	if msgSize > cr.remaining() {
		return nil, fmt.Errorf("%w: message length %d exceeds datagram size %d",
			entities.ErrProtocolError, msgSize, cr.remaining())
	}

	end := cr.off + msgSize
	for cr.off < end {
		tag, err := cr.readTag()
		if err != nil {
			return nil, err
		}
		size, err := cr.readSize()
		if err != nil {
			return nil, err
		}
		payload, err := cr.readBytes(size)
		if err != nil {
			return nil, err
		}
		switch tag {
		case TagVersion:
			// 版本号只做记录用途，新版本消息里已知的块照常解析
			continue
		case TagAnnounce:
			return parseAnnouncement(payload)
		case TagGoodbye:
			return parseGoodbye(payload)
		case TagPull:
			return parsePullRequest(payload)
		default:
			// 未知块，跳过
			continue
		}
	}
	return nil, fmt.Errorf("%w: message contains no known body chunk", entities.ErrProtocolError)
}

// parseAnnouncement 解析存在通告块的数据
func parseAnnouncement(payload []byte) (*Announcement, error) {
	cr := &chunkReader{data: payload}
	peerID, err := cr.readShortString()
	if err != nil {
		return nil, err
	}
	displayName, err := cr.readShortString()
	if err != nil {
		return nil, err
	}
	port, err := cr.readUint16()
	if err != nil {
		return nil, err
	}
	present, err := cr.readByte()
	if err != nil {
		return nil, err
	}
	ann := &Announcement{
		PeerID:       peerID,
		DisplayName:  displayName,
		TransferPort: port,
	}
	if present != 0 {
		desc, err := decodeDescriptorFields(cr)
		if err != nil {
			return nil, err
		}
		ann.Descriptor = &desc
	}
	return ann, nil
}

// parseGoodbye 解析下线告别块的数据
func parseGoodbye(payload []byte) (*Goodbye, error) {
	cr := &chunkReader{data: payload}
	peerID, err := cr.readShortString()
	if err != nil {
		return nil, err
	}
	return &Goodbye{PeerID: peerID}, nil
}

// parsePullRequest 解析拉取请求块的数据
func parsePullRequest(payload []byte) (*PullRequest, error) {
	cr := &chunkReader{data: payload}
	peerID, err := cr.readShortString()
	if err != nil {
		return nil, err
	}
	seq, err := cr.readUint64()
	if err != nil {
		return nil, err
	}
	return &PullRequest{PeerID: peerID, Seq: seq}, nil
}
