package useragent

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Generator 生成会话使用的 User-Agent。
type Generator interface {
	Random() string
}

var (
	windowsPlatforms = []string{
		"Windows NT 10.0; Win64; x64",
		"Windows NT 10.0; WOW64",
		"Windows NT 6.1; Win64; x64",
	}
	macPlatforms = []string{
		"Macintosh; Intel Mac OS X 10_15_7",
		"Macintosh; Intel Mac OS X 13_6_1",
		"Macintosh; Intel Mac OS X 14_4",
	}
	linuxPlatforms = []string{
		"X11; Linux x86_64",
		"X11; Ubuntu; Linux x86_64",
	}
)

// RandomGenerator 组合常见桌面浏览器的 UA 模板，并发安全。
type RandomGenerator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomGenerator 以 seed 创建生成器；seed 为 0 时使用当前时间。
func NewRandomGenerator(seed int64) *RandomGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomGenerator{rnd: rand.New(rand.NewSource(seed))}
}

func (g *RandomGenerator) Random() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.rnd.Intn(4) {
	case 0:
		return g.chrome()
	case 1:
		return g.firefox()
	case 2:
		return g.edge()
	default:
		return g.safari()
	}
}

func (g *RandomGenerator) pick(list []string) string {
	return list[g.rnd.Intn(len(list))]
}

func (g *RandomGenerator) desktopPlatform() string {
	switch g.rnd.Intn(3) {
	case 0:
		return g.pick(windowsPlatforms)
	case 1:
		return g.pick(macPlatforms)
	default:
		return g.pick(linuxPlatforms)
	}
}

func (g *RandomGenerator) chromeVersion() string {
	return fmt.Sprintf("%d.0.%d.%d", 110+g.rnd.Intn(20), 5000+g.rnd.Intn(1400), g.rnd.Intn(200))
}

func (g *RandomGenerator) chrome() string {
	return fmt.Sprintf("Mozilla/5.0 (%s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36",
		g.desktopPlatform(), g.chromeVersion())
}

func (g *RandomGenerator) edge() string {
	v := g.chromeVersion()
	return fmt.Sprintf("Mozilla/5.0 (%s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36 Edg/%s",
		g.pick(windowsPlatforms), v, v)
}

func (g *RandomGenerator) firefox() string {
	v := 110 + g.rnd.Intn(20)
	return fmt.Sprintf("Mozilla/5.0 (%s; rv:%d.0) Gecko/20100101 Firefox/%d.0", g.desktopPlatform(), v, v)
}

func (g *RandomGenerator) safari() string {
	v := 15 + g.rnd.Intn(3)
	return fmt.Sprintf("Mozilla/5.0 (%s) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/%d.%d Safari/605.1.15",
		g.pick(macPlatforms), v, g.rnd.Intn(6))
}

// Static 总是返回同一个 UA，测试中使用。
type Static string

func (s Static) Random() string { return string(s) }
