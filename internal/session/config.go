package session

import (
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"liuproxy_keepalive/internal/shared/types"
)

// Ticker 是保活定时器的最小抽象，测试中用手动触发的实现替换。
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type realTicker struct {
	*time.Ticker
}

func (t realTicker) Chan() <-chan time.Time { return t.C }

func newRealTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

// Config 列出会话引擎的全部可调参数。随机源、定时器与时钟均可注入。
type Config struct {
	Endpoints     []string
	PingInterval  time.Duration
	MaxJitter     time.Duration
	DeviceType    string
	ClientVersion string
	PingVersion   string

	// Rand 只能被一个引擎使用；Supervisor 会为每个引擎分配独立的实例。
	Rand      *rand.Rand
	NewTicker func(time.Duration) Ticker
	Now       func() time.Time
	NewID     func() string
}

// ConfigFromConf 将 ini 中的 [session] 段转换为引擎配置。
func ConfigFromConf(conf types.SessionConf) Config {
	return Config{
		Endpoints:     conf.Endpoints,
		PingInterval:  time.Duration(conf.PingIntervalMs) * time.Millisecond,
		MaxJitter:     time.Duration(conf.MaxJitterMs) * time.Millisecond,
		DeviceType:    conf.DeviceType,
		ClientVersion: conf.ClientVersion,
		PingVersion:   conf.PingVersion,
	}
}

// Validate 检查无法使用默认值补全的字段。
func (c Config) Validate() error {
	if len(c.Endpoints) == 0 {
		return errors.New("session: no remote endpoints configured")
	}
	if c.PingInterval <= 0 {
		return errors.New("session: ping interval must be positive")
	}
	if c.MaxJitter < 0 {
		return errors.New("session: max jitter must not be negative")
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if c.NewTicker == nil {
		c.NewTicker = newRealTicker
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.NewID == nil {
		c.NewID = uuid.NewString
	}
	return c
}
