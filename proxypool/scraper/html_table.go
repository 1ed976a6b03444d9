package scraper

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"

	"liuproxy_keepalive/internal/shared/logger"
	"liuproxy_keepalive/proxypool/model"
)

const htmlRowSelector = "table tbody tr"

// HTMLTableScraper 从 HTML 表格中提取代理：第一列 IP，第二列端口，
// 可选的第三列是协议（HTTP/HTTPS/SOCKS4/SOCKS5）。
type HTMLTableScraper struct {
	url           string
	defaultScheme string
	timeout       time.Duration
}

// NewHTMLTableScraper 创建一个新的实例
func NewHTMLTableScraper(url, defaultScheme string, timeout time.Duration) *HTMLTableScraper {
	if defaultScheme == "" {
		defaultScheme = model.SchemeHTTP
	}
	return &HTMLTableScraper{url: url, defaultScheme: defaultScheme, timeout: timeout}
}

func (s *HTMLTableScraper) Name() string {
	return "html:" + s.url
}

func (s *HTMLTableScraper) Scrape() ([]string, error) {
	l := logger.WithComponent("ProxyPool/Scraper")
	l.Info().Str("source", s.Name()).Msg("Starting scrape...")

	c := colly.NewCollector()
	extensions.RandomUserAgent(c)
	c.SetRequestTimeout(s.timeout)

	var proxies []string
	c.OnHTML(htmlRowSelector, func(e *colly.HTMLElement) {
		if p, ok := s.parseRow(e.DOM); ok {
			proxies = append(proxies, p)
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		l.Error().Err(err).Int("status_code", r.StatusCode).Str("url", r.Request.URL.String()).Msg("Scrape request failed.")
	})

	if err := c.Visit(s.url); err != nil {
		return nil, fmt.Errorf("failed to fetch proxy table from %s: %w", s.url, err)
	}
	c.Wait()

	l.Info().Int("count", len(proxies)).Str("source", s.Name()).Msg("Scrape finished.")
	return proxies, nil
}

func (s *HTMLTableScraper) parseRow(row *goquery.Selection) (string, bool) {
	cells := row.Find("td")
	ip := strings.TrimSpace(cells.Eq(0).Text())
	portStr := strings.TrimSpace(cells.Eq(1).Text())
	if ip == "" || portStr == "" {
		return "", false
	}
	if _, err := strconv.Atoi(portStr); err != nil {
		l := logger.WithComponent("ProxyPool/Scraper")
		l.Warn().Str("ip", ip).Str("port", portStr).Msg("Failed to parse port, skipping.")
		return "", false
	}

	scheme := s.defaultScheme
	switch p := strings.ToLower(strings.TrimSpace(cells.Eq(2).Text())); p {
	case model.SchemeHTTP, model.SchemeHTTPS, model.SchemeSOCKS4, model.SchemeSOCKS5:
		scheme = p
	}
	return fmt.Sprintf("%s://%s:%s", scheme, ip, portStr), true
}
