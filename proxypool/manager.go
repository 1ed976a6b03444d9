package manager

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"liuproxy_keepalive/internal/shared/logger"
	"liuproxy_keepalive/proxypool/model"
	"liuproxy_keepalive/proxypool/scraper"
	"liuproxy_keepalive/proxypool/storage"
)

var (
	// ErrEmptyProxyList 表示代理源没有返回任何代理，启动应当中止。
	ErrEmptyProxyList = errors.New("no proxies available")
	// ErrNotInPool 表示要删除的代理已经不在池中。
	ErrNotInPool = errors.New("proxy not in pool")
)

// Pool 是会话引擎所看到的代理池：读取全部条目、删除单个条目。
type Pool interface {
	List() []model.ProxyEndpoint
	Remove(ep model.ProxyEndpoint) error
}

// Manager 是代理池模块的总控制器，实现 Pool 接口。
// 所有写操作都经过 mu 串行化，storage 中的读-改-写不会交错。
type Manager struct {
	storage       storage.Storage
	defaultScheme string

	mu      sync.Mutex
	proxies []model.ProxyEndpoint
}

var _ Pool = (*Manager)(nil)

// NewManager 创建代理池管理器。defaultScheme 用于补全没有 scheme 的行。
func NewManager(st storage.Storage, defaultScheme string) *Manager {
	return &Manager{
		storage:       st,
		defaultScheme: defaultScheme,
	}
}

// Load 从存储读取代理池并去重（保留第一次出现的位置）。
func (m *Manager) Load() error {
	l := logger.WithComponent("ProxyPool/Manager")

	lines, err := m.storage.Load()
	if err != nil {
		return fmt.Errorf("failed to load proxy pool: %w", err)
	}

	proxies := make([]model.ProxyEndpoint, 0, len(lines))
	for _, line := range dedupe(lines) {
		proxies = append(proxies, model.ParseEndpoint(line))
	}

	m.mu.Lock()
	m.proxies = proxies
	m.mu.Unlock()

	l.Info().Int("count", len(proxies)).Msg("Proxy pool loaded.")
	return nil
}

// Replace 用 lines 覆盖存储中的代理池（初次填充），并同步内存视图。
func (m *Manager) Replace(lines []string) error {
	normalized := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		normalized = append(normalized, model.ParseEndpointDefault(line, m.defaultScheme).Raw)
	}
	normalized = dedupe(normalized)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.storage.Save(normalized); err != nil {
		return fmt.Errorf("failed to save proxy pool: %w", err)
	}
	m.proxies = m.proxies[:0]
	for _, line := range normalized {
		m.proxies = append(m.proxies, model.ParseEndpoint(line))
	}
	return nil
}

// Refresh 依次运行所有抓取器，合并结果后写入存储。
// 抓取不到任何代理时返回 ErrEmptyProxyList，不做重试。
func (m *Manager) Refresh(scrapers ...scraper.Scraper) error {
	l := logger.WithComponent("ProxyPool/Manager")

	var fetched []string
	for _, s := range scrapers {
		lines, err := s.Scrape()
		if err != nil {
			l.Warn().Err(err).Str("source", s.Name()).Msg("Scraper failed.")
			continue
		}
		fetched = append(fetched, lines...)
	}

	if len(fetched) == 0 {
		return ErrEmptyProxyList
	}
	if err := m.Replace(fetched); err != nil {
		return err
	}
	l.Info().Int("count", m.Len()).Msg("Fetched and saved proxies.")
	return nil
}

// List 返回当前代理池的快照。
func (m *Manager) List() []model.ProxyEndpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ProxyEndpoint(nil), m.proxies...)
}

// Len 返回当前代理数量。
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.proxies)
}

// Remove 从存储和内存中删除恰好这一个代理，其余条目顺序不变。
func (m *Manager) Remove(ep model.ProxyEndpoint) error {
	l := logger.WithComponent("ProxyPool/Manager")

	m.mu.Lock()
	defer m.mu.Unlock()

	removed, err := m.storage.Remove(ep.Raw)
	if err != nil {
		return fmt.Errorf("failed to remove proxy '%s': %w", ep.Raw, err)
	}

	inMemory := false
	for i, p := range m.proxies {
		if p.Raw == ep.Raw {
			m.proxies = append(m.proxies[:i:i], m.proxies[i+1:]...)
			inMemory = true
			break
		}
	}

	if !removed && !inMemory {
		return ErrNotInPool
	}
	l.Info().Str("proxy", ep.Raw).Int("remaining", len(m.proxies)).Msg("Proxy has been removed from the pool.")
	return nil
}

func dedupe(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
