package scanner

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spaolacci/murmur3"

	"noxscan/models"
)

// enrichWeb pulls page title and favicon hash from the first open web port.
// Best-effort, independent of banner grabbing.
func (e *Enricher) enrichWeb(ctx context.Context, dev *models.Device) {
	for _, port := range dev.OpenPorts {
		if !IsWebPort(port) {
			continue
		}
		baseURL := webBaseURL(dev.Address, port)
		client := newWebClient(e.Timeout)

		if title := fetchPageTitle(ctx, client, baseURL); title != "" {
			dev.WebTitle = title
		}
		if hash, ok := fetchFaviconHash(ctx, client, baseURL); ok {
			dev.FaviconHash = hash
		}
		return
	}
}

func webBaseURL(ip string, port int) string {
	scheme := "http"
	if port == 443 || port == 8443 {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, ip, port)
}

func newWebClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout * 3,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
}

// fetchPageTitle parses the <title> element from the landing page.
func fetchPageTitle(ctx context.Context, client *http.Client, baseURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/", nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return ""
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	title = strings.Join(strings.Fields(title), " ")
	if len(title) > 200 {
		title = title[:200]
	}
	return title
}

// fetchFaviconHash computes the Shodan-compatible mmh3 hash of the favicon.
func fetchFaviconHash(ctx context.Context, client *http.Client, baseURL string) (int32, bool) {
	for _, path := range []string{"/favicon.ico", "/favicon.png"} {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
		if err != nil {
			continue
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")

		resp, err := client.Do(req)
		if err != nil {
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			continue
		}

		favicon, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
		resp.Body.Close()
		if err != nil || len(favicon) == 0 {
			continue
		}

		b64 := base64.StdEncoding.EncodeToString(favicon)
		h := murmur3.New32()
		h.Write([]byte(b64))
		return int32(h.Sum32()), true
	}
	return 0, false
}
