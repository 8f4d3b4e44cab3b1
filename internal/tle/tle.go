package tle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultSourceURL = "https://celestrak.org/NORAD/elements/gp.php?CATNR=25544&FORMAT=tle"

// TLE holds a parsed two-line element set.
type TLE struct {
	Name  string
	Line1 string
	Line2 string
}

// Validate performs basic format checks on the element lines.
func (t TLE) Validate() error {
	if len(t.Line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(t.Line1))
	}
	if len(t.Line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(t.Line2))
	}
	if t.Line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got %q", t.Line1[0])
	}
	if t.Line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got %q", t.Line2[0])
	}
	return nil
}

// Parse extracts the first element set from raw TLE text, with or without a
// leading name line.
func Parse(data []byte) (TLE, error) {
	var t TLE
	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimRight(raw, "\r ")
		switch {
		case strings.HasPrefix(line, "1 ") && t.Line1 == "":
			t.Line1 = line
		case strings.HasPrefix(line, "2 ") && t.Line2 == "":
			t.Line2 = line
		case line != "" && t.Name == "" && t.Line1 == "":
			t.Name = strings.TrimSpace(line)
		}
		if t.Line1 != "" && t.Line2 != "" {
			break
		}
	}
	if t.Line1 == "" || t.Line2 == "" {
		return TLE{}, fmt.Errorf("no element set found in %d bytes", len(data))
	}
	if err := t.Validate(); err != nil {
		return TLE{}, fmt.Errorf("parsed element set is invalid: %w", err)
	}
	return t, nil
}

// Fetcher retrieves raw TLE data from a remote source.
type Fetcher struct {
	sourceURL  string
	httpClient *http.Client
}

// NewFetcher creates a Fetcher for the given source URL.
func NewFetcher(sourceURL string) *Fetcher {
	if sourceURL == "" {
		sourceURL = defaultSourceURL
	}
	return &Fetcher{
		sourceURL: sourceURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Fetch performs an HTTP GET and parses the returned element set.
func (f *Fetcher) Fetch(ctx context.Context) (TLE, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.sourceURL, nil)
	if err != nil {
		return TLE{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return TLE{}, fmt.Errorf("fetching TLE data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return TLE{}, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, f.sourceURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TLE{}, fmt.Errorf("reading response body: %w", err)
	}

	return Parse(body)
}
