package types

import "time"

// SessionState 是单个代理会话在一次连接尝试中的状态。
type SessionState int

const (
	SessionIdle SessionState = iota
	SessionConnecting
	SessionOpen
	SessionAuthenticated
	SessionClosed
	SessionFailed
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "IDLE"
	case SessionConnecting:
		return "CONNECTING"
	case SessionOpen:
		return "OPEN"
	case SessionAuthenticated:
		return "AUTHENTICATED"
	case SessionClosed:
		return "CLOSED"
	case SessionFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText 让状态在 JSON 中以名称出现。
func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SessionStatus holds the runtime view of one session, as shown by the status page.
type SessionStatus struct {
	Proxy     string       `json:"proxy"`
	BrowserID string       `json:"browserId"`
	State     SessionState `json:"state"`
	URI       string       `json:"uri,omitempty"`
	Connects  uint64       `json:"connects"`
	Pings     uint64       `json:"pings"`
	Replies   uint64       `json:"replies"`
	LastError string       `json:"lastError,omitempty"`
	UpdatedAt time.Time    `json:"updatedAt"`
}
