package scraper

import (
	"fmt"
	"time"

	"liuproxy_keepalive/internal/shared/types"
)

// Scraper 接口定义了从代理源抓取代理列表的行为。
type Scraper interface {
	// Scrape 执行抓取并返回代理行（"scheme://host:port" 或裸 "host:port"）。
	// 实现者只负责抓取和初步解析，不做连通性验证。
	Scrape() ([]string, error)

	// Name 返回抓取器的名称，用于日志记录。
	Name() string
}

// New 根据 [proxypool] 配置创建抓取器。未配置 source_url 时返回 nil。
func New(cfg types.ProxyPoolConf) (Scraper, error) {
	if cfg.SourceURL == "" {
		return nil, nil
	}
	timeout := time.Duration(cfg.FetchTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	switch cfg.SourceFormat {
	case "text", "":
		return NewTextListScraper(cfg.SourceURL, timeout), nil
	case "html":
		return NewHTMLTableScraper(cfg.SourceURL, cfg.DefaultScheme, timeout), nil
	default:
		return nil, fmt.Errorf("unknown proxy source format: '%s'", cfg.SourceFormat)
	}
}
