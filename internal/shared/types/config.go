package types

// CommonConf 包含运营者身份等公共配置
type CommonConf struct {
	UserID     string `ini:"user_id"`
	UserIDFile string `ini:"user_id_file"`
}

// SessionConf 控制每个代理会话的握手与保活行为
type SessionConf struct {
	Endpoints          []string `ini:"endpoints" delim:","` // 远端服务的等价 wss 地址
	PingIntervalMs     int      `ini:"ping_interval_ms"`
	MaxJitterMs        int      `ini:"max_jitter_ms"`
	HandshakeTimeoutMs int      `ini:"handshake_timeout_ms"`
	DeviceType         string   `ini:"device_type"`
	ClientVersion      string   `ini:"client_version"`
	PingVersion        string   `ini:"ping_version"`
	TLSFingerprint     string   `ini:"tls_fingerprint"` // "" 使用 crypto/tls，其余走 utls
	AllowInsecure      bool     `ini:"allow_insecure"`
}

// ProxyPoolConf 描述代理池的来源与持久化方式
type ProxyPoolConf struct {
	Storage         string `ini:"storage"` // "file" 或 "redis"
	File            string `ini:"file"`
	SourceURL       string `ini:"source_url"`
	SourceFormat    string `ini:"source_format"` // "text" 或 "html"
	DefaultScheme   string `ini:"default_scheme"`
	FetchTimeoutSec int    `ini:"fetch_timeout_sec"`
	DialTimeoutSec  int    `ini:"dial_timeout_sec"`

	// 启动前探测代理，剔除无法连通的条目
	Validate            bool `ini:"validate"`
	ValidateConcurrency int  `ini:"validate_concurrency"`

	RedisAddr     string `ini:"redis_addr"`
	RedisPassword string `ini:"redis_password"`
	RedisDB       int    `ini:"redis_db"`
	RedisKey      string `ini:"redis_key"`
}

// LocalConf 包含本地状态页配置
type LocalConf struct {
	WebPort     int    `ini:"web_port"`
	WebUser     string `ini:"web_user"`
	WebPassword string `ini:"web_password"`
}

// LogConf contains logging specific configuration
type LogConf struct {
	Level string `ini:"level"`
}

// Config 是整个程序的统一配置结构体
type Config struct {
	CommonConf    `ini:"common"`
	SessionConf   `ini:"session"`
	ProxyPoolConf `ini:"proxypool"`
	LocalConf     `ini:"local"`
	LogConf       `ini:"log"`
}

// DefaultConfig 返回与原始行为一致的默认值。
func DefaultConfig() *Config {
	return &Config{
		SessionConf: SessionConf{
			Endpoints: []string{
				"wss://proxy2.wynd.network:4444/",
				"wss://proxy2.wynd.network:4650/",
			},
			PingIntervalMs:     5000,
			MaxJitterMs:        1000,
			HandshakeTimeoutMs: 15000,
			DeviceType:         "desktop",
			ClientVersion:      "4.28.2",
			PingVersion:        "1.0.0",
		},
		ProxyPoolConf: ProxyPoolConf{
			Storage:             "file",
			File:                "auto_proxies.txt",
			SourceFormat:        "text",
			DefaultScheme:       "http",
			FetchTimeoutSec:     20,
			DialTimeoutSec:      10,
			ValidateConcurrency: 5,
			RedisKey:            "keepalive:proxies",
		},
		LogConf: LogConf{Level: "info"},
	}
}
