package codex

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxFetchBytes caps the overview response body.
const maxFetchBytes = 10 << 20

// fetchPage retrieves server-rendered HTML with a plain GET. The overview
// page needs no browser: its keyword table and links are in the raw markup.
func (s *Service) fetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request %s: %v", ErrFetch, pageURL, err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: get %s: %v", ErrFetch, pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: get %s: status %d", ErrFetch, pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrFetch, pageURL, err)
	}
	return string(body), nil
}
