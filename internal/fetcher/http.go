package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/communitykit/activitysync/internal/version"
)

const maxResponseBytes = 5 << 20

// getJSON issues an authenticated GET and returns status, headers and body.
// A non-nil error means the request never produced a response.
func getJSON(
	ctx context.Context,
	doer Doer,
	target, accessToken string,
	headers map[string]string,
) (int, http.Header, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := doer.Do(ctx, req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, resp.Header, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, resp.Header, body, nil
}

// truncate shortens s to n runes, appending "..." when anything was cut.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// resetTime parses a unix-seconds rate limit reset header.
func resetTime(h http.Header, key string) string {
	v := h.Get(key)
	if v == "" {
		return "unknown"
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return "unknown"
	}
	return time.Unix(secs, 0).UTC().Format(time.RFC3339)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func metaString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func metaBool(m map[string]any, key string) bool {
	v, _ := m[key].(bool)
	return v
}
