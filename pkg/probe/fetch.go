package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
)

// Fetch retrieves raw page content for detail scraping. Unlike Do it has no
// classification contract; any non-2xx status is an error.
func (p *Prober) Fetch(ctx context.Context, host string, port int, path string, auth *Credentials) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	req := Request{Host: host, Port: port, Path: path, Auth: auth}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.url(), nil)
	if err != nil {
		return "", err
	}
	if auth != nil {
		httpReq.SetBasicAuth(auth.Username, auth.Password)
	}

	client := &http.Client{Transport: p.transport(req)}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("fetching %s: status %d", req.url(), resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// ScrapeRequestCount extracts the Apache server-status activity line
// ("N requests currently being processed ...") and shortens it for the
// report, e.g. "3 current, 57 idle workers".
func ScrapeRequestCount(body string) string {
	line := findLine(body, "requests currently being processed")
	if line == "" {
		return ""
	}
	line = strings.TrimSpace(htmlTagPattern.ReplaceAllString(line, ""))
	return strings.ReplaceAll(line, "requests currently being processed", "current")
}

// ScrapePHPVersion extracts the version from a phpinfo page's
// "PHP Version x.y.z" heading.
func ScrapePHPVersion(body string) string {
	line := findLine(body, "PHP Version")
	if line == "" {
		return ""
	}
	line = htmlTagPattern.ReplaceAllString(line, "")
	line = strings.ReplaceAll(line, "PHP Version", "")
	return strings.ReplaceAll(line, " ", "")
}

func findLine(body, marker string) string {
	for _, line := range strings.Split(body, "\n") {
		if strings.Contains(line, marker) {
			return line
		}
	}
	return ""
}
