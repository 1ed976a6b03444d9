package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// 远端服务使用的动作
const (
	ActionPing = "PING"
	ActionPong = "PONG"
	ActionAuth = "AUTH"
)

// ErrMalformedMessage 表示收到的帧不是合法的 Message。
var ErrMalformedMessage = errors.New("malformed protocol message")

// Message 是双向通道上每个文本帧承载的 JSON 信封。
// ID 是不透明的关联标识，保留原始 JSON（字符串、数字均可），回复时原样返回。
type Message struct {
	ID      json.RawMessage `json:"id,omitempty"`
	Version string          `json:"version,omitempty"`
	Action  string          `json:"action"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// AuthResult 是 AUTH 应答中的 result 字段。
type AuthResult struct {
	BrowserID  string `json:"browser_id"`
	UserID     string `json:"user_id"`
	UserAgent  string `json:"user_agent"`
	Timestamp  int64  `json:"timestamp"`
	DeviceType string `json:"device_type"`
	Version    string `json:"version"`
}

// AuthReply 回应服务端发起的 AUTH。
type AuthReply struct {
	ID           json.RawMessage `json:"id"`
	OriginAction string          `json:"origin_action"`
	Result       AuthResult      `json:"result"`
}

// PongReply 回应服务端发来的 PONG。
type PongReply struct {
	ID           json.RawMessage `json:"id"`
	OriginAction string          `json:"origin_action"`
}

// NewPing 构造一个周期性发送的 PING，data 固定为空对象。
func NewPing(id, version string) *Message {
	return &Message{
		ID:      StringID(id),
		Version: version,
		Action:  ActionPing,
		Data:    json.RawMessage(`{}`),
	}
}

// NewAuthReply 构造 AUTH 应答。
func NewAuthReply(id json.RawMessage, result AuthResult) *AuthReply {
	return &AuthReply{ID: id, OriginAction: ActionAuth, Result: result}
}

// NewPongReply 构造 PONG 应答，id 与收到的 PONG 相同。
func NewPongReply(id json.RawMessage) *PongReply {
	return &PongReply{ID: id, OriginAction: ActionPong}
}

// StringID 把字符串编码为 JSON id。
func StringID(id string) json.RawMessage {
	b, _ := json.Marshal(id)
	return b
}

// IDString 返回便于记录日志的 id：字符串 id 去掉引号，其余保持原始 JSON。
func (m *Message) IDString() string {
	var s string
	if err := json.Unmarshal(m.ID, &s); err == nil {
		return s
	}
	return string(m.ID)
}

// Decode 解析一个入站帧。缺少 action 的对象同样视为非法。
func Decode(frame []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if msg.Action == "" {
		return nil, fmt.Errorf("%w: missing action", ErrMalformedMessage)
	}
	return &msg, nil
}

// Encode 将任意出站消息编码为一个文本帧。
func Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}
