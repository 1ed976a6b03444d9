package scraper

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"

	"liuproxy_keepalive/internal/shared/logger"
)

// TextListScraper 抓取纯文本代理列表，每行一个代理，例如
// https://raw.githubusercontent.com/proxifly/free-proxy-list/main/proxies/countries/CA/data.txt
type TextListScraper struct {
	url     string
	timeout time.Duration
}

// NewTextListScraper 创建一个新的 TextListScraper 实例。
func NewTextListScraper(url string, timeout time.Duration) *TextListScraper {
	return &TextListScraper{url: url, timeout: timeout}
}

// Name 返回抓取器的名称。
func (s *TextListScraper) Name() string {
	return "text:" + s.url
}

// Scrape 执行抓取操作。非 2xx 响应视为失败。
func (s *TextListScraper) Scrape() ([]string, error) {
	l := logger.WithComponent("ProxyPool/Scraper")
	l.Info().Str("source", s.Name()).Msg("Starting scrape...")

	c := colly.NewCollector()
	extensions.RandomUserAgent(c)
	c.SetRequestTimeout(s.timeout)

	var proxies []string
	c.OnResponse(func(r *colly.Response) {
		scanner := bufio.NewScanner(bytes.NewReader(r.Body))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			proxies = append(proxies, line)
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		l.Error().Err(err).Int("status_code", r.StatusCode).Str("url", r.Request.URL.String()).Msg("Scrape request failed.")
	})

	if err := c.Visit(s.url); err != nil {
		return nil, fmt.Errorf("failed to fetch proxy list from %s: %w", s.url, err)
	}
	c.Wait()

	l.Info().Int("count", len(proxies)).Str("source", s.Name()).Msg("Scrape finished.")
	return proxies, nil
}
