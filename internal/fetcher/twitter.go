package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/communitykit/activitysync/internal/models"

	"github.com/rs/zerolog/log"
)

const (
	twitterAPIBase     = "https://api.twitter.com"
	twitterMinPageSize = 5
	twitterMaxPageSize = 100
	twitterTitleLen    = 100
	twitterTweetFields = "created_at,public_metrics,referenced_tweets,entities"
)

// Metadata keys set on Twitter raw activities.
const (
	MetaIsReply     = "isReply"
	MetaExternalURL = "externalUrl"
	MetaLikes       = "likes"
	MetaRetweets    = "retweets"
)

// TwitterFetcher reads a user's recent tweets from the X API v2.
type TwitterFetcher struct {
	doer    Doer
	baseURL string
	now     func() time.Time
}

// TwitterOption configures a TwitterFetcher.
type TwitterOption func(*TwitterFetcher)

// WithTwitterBaseURL overrides the API base URL.
func WithTwitterBaseURL(u string) TwitterOption {
	return func(f *TwitterFetcher) {
		f.baseURL = strings.TrimSuffix(u, "/")
	}
}

// NewTwitterFetcher creates a Twitter fetcher sending requests through doer.
func NewTwitterFetcher(doer Doer, opts ...TwitterOption) *TwitterFetcher {
	f := &TwitterFetcher{doer: doer, baseURL: twitterAPIBase, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *TwitterFetcher) Provider() models.Provider {
	return models.ProviderTwitter
}

type tweet struct {
	ID               string    `json:"id"`
	Text             string    `json:"text"`
	CreatedAt        time.Time `json:"created_at"`
	ReferencedTweets []struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"referenced_tweets"`
	Entities struct {
		URLs []struct {
			ExpandedURL string `json:"expanded_url"`
		} `json:"urls"`
	} `json:"entities"`
	PublicMetrics struct {
		LikeCount    int `json:"like_count"`
		RetweetCount int `json:"retweet_count"`
	} `json:"public_metrics"`
}

type tweetsResponse struct {
	Data []tweet `json:"data"`
	Meta struct {
		NextToken   string `json:"next_token"`
		ResultCount int    `json:"result_count"`
	} `json:"meta"`
}

// FetchActivities follows pagination tokens until MaxResults tweets inside
// the lookback window are collected. Retweets are skipped.
func (f *TwitterFetcher) FetchActivities(
	ctx context.Context,
	accessToken, providerUserID string,
	cfg Config,
) *Result {
	cfg = cfg.withDefaults()
	cutoff := cfg.cutoff(f.now())

	activities := make([]RawActivity, 0, cfg.MaxResults)
	paginationToken := ""

	for {
		q := url.Values{}
		q.Set("max_results", strconv.Itoa(clamp(cfg.MaxResults-len(activities), twitterMinPageSize, twitterMaxPageSize)))
		q.Set("tweet.fields", twitterTweetFields)
		q.Set("start_time", cutoff.UTC().Format(time.RFC3339))
		if paginationToken != "" {
			q.Set("pagination_token", paginationToken)
		}
		target := fmt.Sprintf("%s/2/users/%s/tweets?%s",
			f.baseURL, url.PathEscape(providerUserID), q.Encode())

		status, header, body, err := getJSON(ctx, f.doer, target, accessToken, nil)
		if err != nil {
			return failure(ErrorNetwork, fmt.Sprintf("Twitter request failed: %v", err))
		}
		if status != http.StatusOK {
			return twitterHTTPFailure(status, header)
		}

		var page tweetsResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return failure(ErrorHTTP, fmt.Sprintf("invalid Twitter response: %v", err))
		}

		for _, tw := range page.Data {
			if tw.CreatedAt.Before(cutoff) {
				continue
			}
			raw, ok := tweetToRawActivity(tw)
			if !ok {
				continue
			}
			activities = append(activities, raw)
			if len(activities) >= cfg.MaxResults {
				return success(activities)
			}
		}

		if page.Meta.NextToken == "" || len(page.Data) == 0 {
			break
		}
		paginationToken = page.Meta.NextToken
	}

	log.Debug().
		Str("provider", "twitter").
		Int("count", len(activities)).
		Msg("fetched activities")
	return success(activities)
}

func twitterHTTPFailure(status int, header http.Header) *Result {
	switch status {
	case http.StatusUnauthorized:
		return failure(ErrorUnauthorized, "Twitter token is unauthorized or expired")
	case http.StatusTooManyRequests:
		return failure(ErrorRateLimited, fmt.Sprintf(
			"Twitter rate limit exceeded, resets at %s",
			resetTime(header, "x-rate-limit-reset"),
		))
	case http.StatusForbidden:
		return failure(ErrorForbidden, "Twitter API access forbidden")
	case http.StatusNotFound:
		return failure(ErrorNotFound, "Twitter user not found")
	default:
		return failure(ErrorHTTP, fmt.Sprintf("Twitter API error: HTTP %d", status))
	}
}

func tweetToRawActivity(tw tweet) (RawActivity, bool) {
	isReply := false
	for _, ref := range tw.ReferencedTweets {
		switch ref.Type {
		case "retweeted":
			return RawActivity{}, false
		case "replied_to":
			isReply = true
		}
	}

	external := ""
	for _, u := range tw.Entities.URLs {
		if isExternalLink(u.ExpandedURL) {
			external = u.ExpandedURL
			break
		}
	}

	text := tw.Text
	link := "https://twitter.com/i/web/status/" + tw.ID
	return RawActivity{
		ID:          tw.ID,
		Timestamp:   tw.CreatedAt,
		Title:       truncate(text, twitterTitleLen),
		Description: &text,
		URL:         &link,
		Metadata: map[string]any{
			MetaIsReply:     isReply,
			MetaExternalURL: external,
			MetaLikes:       tw.PublicMetrics.LikeCount,
			MetaRetweets:    tw.PublicMetrics.RetweetCount,
		},
	}, true
}

// isExternalLink reports whether raw points outside twitter.com and x.com.
func isExternalLink(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	switch {
	case host == "twitter.com", host == "x.com", host == "t.co":
		return false
	case strings.HasSuffix(host, ".twitter.com"), strings.HasSuffix(host, ".x.com"):
		return false
	}
	return true
}

// MapToProcessedActivity treats tweets sharing an external link as blog
// posts and everything else as community answers, scored from the shared
// points table.
func (f *TwitterFetcher) MapToProcessedActivity(raw RawActivity) models.ProcessedActivity {
	activityType := models.ActivityCommunityAnswers
	if metaString(raw.Metadata, MetaExternalURL) != "" {
		activityType = models.ActivityBlogPost
	}
	points := models.DefaultActivityPoints[activityType]

	return models.ProcessedActivity{
		Provider:           models.ProviderTwitter,
		ProviderActivityID: raw.ID,
		ActivityType:       activityType,
		Title:              raw.Title,
		Description:        raw.Description,
		URL:                raw.URL,
		SuggestedPoints:    points,
		EventDate:          timePtr(raw.Timestamp),
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
