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
	linkedInAPIBase     = "https://api.linkedin.com"
	linkedInTitleLen    = 200
	linkedInMaxPageSize = 100
	linkedInShareKey    = "com.linkedin.ugc.ShareContent"
)

// Metadata keys set on LinkedIn raw activities.
const (
	MetaMediaCategory = "mediaCategory"
	MetaHasArticle    = "hasArticle"
)

// LinkedIn share media categories.
const (
	linkedInMediaArticle = "ARTICLE"
	linkedInMediaVideo   = "VIDEO"
)

// LinkedInFetcher reads a member's UGC posts.
type LinkedInFetcher struct {
	doer    Doer
	baseURL string
	now     func() time.Time
}

// LinkedInOption configures a LinkedInFetcher.
type LinkedInOption func(*LinkedInFetcher)

// WithLinkedInBaseURL overrides the API base URL.
func WithLinkedInBaseURL(u string) LinkedInOption {
	return func(f *LinkedInFetcher) {
		f.baseURL = strings.TrimSuffix(u, "/")
	}
}

// NewLinkedInFetcher creates a LinkedIn fetcher sending requests through doer.
func NewLinkedInFetcher(doer Doer, opts ...LinkedInOption) *LinkedInFetcher {
	f := &LinkedInFetcher{doer: doer, baseURL: linkedInAPIBase, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *LinkedInFetcher) Provider() models.Provider {
	return models.ProviderLinkedIn
}

type ugcText struct {
	Text string `json:"text"`
}

type ugcPost struct {
	ID               string `json:"id"`
	LifecycleState   string `json:"lifecycleState"`
	FirstPublishedAt int64  `json:"firstPublishedAt"`
	Created          struct {
		Time int64 `json:"time"`
	} `json:"created"`
	SpecificContent map[string]struct {
		ShareCommentary    ugcText `json:"shareCommentary"`
		ShareMediaCategory string  `json:"shareMediaCategory"`
		Media              []struct {
			Status      string  `json:"status"`
			OriginalURL string  `json:"originalUrl"`
			Title       ugcText `json:"title"`
			Description ugcText `json:"description"`
		} `json:"media"`
	} `json:"specificContent"`
}

type ugcPostsResponse struct {
	Elements []ugcPost `json:"elements"`
}

// FetchActivities reads published posts inside the lookback window.
func (f *LinkedInFetcher) FetchActivities(
	ctx context.Context,
	accessToken, providerUserID string,
	cfg Config,
) *Result {
	cfg = cfg.withDefaults()
	cutoff := cfg.cutoff(f.now())

	author := url.QueryEscape("urn:li:person:" + providerUserID)
	target := fmt.Sprintf("%s/v2/ugcPosts?q=authors&authors=List(%s)&sortBy=LAST_MODIFIED&count=%s",
		f.baseURL, author, strconv.Itoa(min(cfg.MaxResults, linkedInMaxPageSize)))

	status, header, body, err := getJSON(ctx, f.doer, target, accessToken, map[string]string{
		"X-Restli-Protocol-Version": "2.0.0",
	})
	if err != nil {
		return failure(ErrorNetwork, fmt.Sprintf("LinkedIn request failed: %v", err))
	}
	if status != http.StatusOK {
		return linkedInHTTPFailure(status, header)
	}

	var page ugcPostsResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return failure(ErrorHTTP, fmt.Sprintf("invalid LinkedIn response: %v", err))
	}

	activities := make([]RawActivity, 0, len(page.Elements))
	for _, post := range page.Elements {
		if post.LifecycleState != "PUBLISHED" {
			continue
		}
		raw := ugcPostToRawActivity(post)
		if raw.Timestamp.Before(cutoff) {
			continue
		}
		activities = append(activities, raw)
		if len(activities) >= cfg.MaxResults {
			break
		}
	}

	log.Debug().
		Str("provider", "linkedin").
		Int("count", len(activities)).
		Msg("fetched activities")
	return success(activities)
}

func linkedInHTTPFailure(status int, header http.Header) *Result {
	switch status {
	case http.StatusUnauthorized:
		return failure(ErrorUnauthorized, "LinkedIn token is unauthorized or expired")
	case http.StatusTooManyRequests:
		return failure(ErrorRateLimited, "LinkedIn rate limit exceeded")
	case http.StatusForbidden:
		return failure(ErrorForbidden, "LinkedIn API access forbidden")
	case http.StatusNotFound:
		return failure(ErrorNotFound, "LinkedIn member not found")
	default:
		return failure(ErrorHTTP, fmt.Sprintf("LinkedIn API error: HTTP %d", status))
	}
}

func ugcPostToRawActivity(post ugcPost) RawActivity {
	ts := post.FirstPublishedAt
	if ts == 0 {
		ts = post.Created.Time
	}

	share := post.SpecificContent[linkedInShareKey]
	commentary := strings.TrimSpace(share.ShareCommentary.Text)
	category := strings.ToUpper(share.ShareMediaCategory)

	title := truncate(commentary, linkedInTitleLen)
	link := "https://www.linkedin.com/feed/update/" + post.ID
	hasArticle := false

	if category == linkedInMediaArticle {
		for _, m := range share.Media {
			if m.Status != "READY" {
				continue
			}
			hasArticle = true
			if m.Title.Text != "" {
				title = truncate(m.Title.Text, linkedInTitleLen)
			}
			if m.OriginalURL != "" {
				link = m.OriginalURL
			}
			break
		}
	}
	if title == "" {
		title = "LinkedIn post"
	}

	return RawActivity{
		ID:          post.ID,
		Timestamp:   time.UnixMilli(ts).UTC(),
		Title:       title,
		Description: strPtr(commentary),
		URL:         &link,
		Metadata: map[string]any{
			MetaMediaCategory: category,
			MetaHasArticle:    hasArticle,
		},
	}
}

// MapToProcessedActivity scores videos highest, then posts carrying ready
// article media, then plain text shares.
func (f *LinkedInFetcher) MapToProcessedActivity(raw RawActivity) models.ProcessedActivity {
	activityType, points := models.ActivityBlogPost, 100
	switch {
	case metaString(raw.Metadata, MetaMediaCategory) == linkedInMediaVideo:
		activityType, points = models.ActivityVideoTutorial, 150
	case metaBool(raw.Metadata, MetaHasArticle):
		activityType, points = models.ActivityBlogPost, 125
	}

	return models.ProcessedActivity{
		Provider:           models.ProviderLinkedIn,
		ProviderActivityID: raw.ID,
		ActivityType:       activityType,
		Title:              raw.Title,
		Description:        raw.Description,
		URL:                raw.URL,
		SuggestedPoints:    points,
		EventDate:          timePtr(raw.Timestamp),
	}
}
