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
	githubAPIBase    = "https://api.github.com"
	githubPerPage    = 100
	githubMaxPages   = 3
	githubAPIVersion = "2022-11-28"

	githubTitleLen   = 100
	githubCommentLen = 500
)

// Metadata keys set on GitHub raw activities.
const (
	MetaEventType = "eventType"
	MetaRepo      = "repo"
	MetaAction    = "action"
)

// GitHubFetcher reads the public event stream of a GitHub user.
type GitHubFetcher struct {
	doer    Doer
	baseURL string
	now     func() time.Time
}

// GitHubOption configures a GitHubFetcher.
type GitHubOption func(*GitHubFetcher)

// WithGitHubBaseURL overrides the API base URL.
func WithGitHubBaseURL(u string) GitHubOption {
	return func(f *GitHubFetcher) {
		f.baseURL = strings.TrimSuffix(u, "/")
	}
}

// NewGitHubFetcher creates a GitHub fetcher sending requests through doer.
func NewGitHubFetcher(doer Doer, opts ...GitHubOption) *GitHubFetcher {
	f := &GitHubFetcher{doer: doer, baseURL: githubAPIBase, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *GitHubFetcher) Provider() models.Provider {
	return models.ProviderGitHub
}

type githubEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Repo      struct {
		Name string `json:"name"`
	} `json:"repo"`
	Payload githubPayload `json:"payload"`
}

type githubPayload struct {
	Action  string `json:"action"`
	Ref     string `json:"ref"`
	Commits []struct {
		SHA     string `json:"sha"`
		Message string `json:"message"`
	} `json:"commits"`
	PullRequest *struct {
		Number  int    `json:"number"`
		Title   string `json:"title"`
		Body    string `json:"body"`
		HTMLURL string `json:"html_url"`
	} `json:"pull_request"`
	Issue *struct {
		Number  int    `json:"number"`
		Title   string `json:"title"`
		Body    string `json:"body"`
		HTMLURL string `json:"html_url"`
	} `json:"issue"`
	Comment *struct {
		Body    string `json:"body"`
		HTMLURL string `json:"html_url"`
	} `json:"comment"`
}

func (f *GitHubFetcher) headers() map[string]string {
	return map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": githubAPIVersion,
	}
}

// FetchActivities pages through /users/{login}/events. A purely numeric
// providerUserID is resolved to a login first.
func (f *GitHubFetcher) FetchActivities(
	ctx context.Context,
	accessToken, providerUserID string,
	cfg Config,
) *Result {
	cfg = cfg.withDefaults()
	cutoff := cfg.cutoff(f.now())

	login := providerUserID
	if isNumeric(providerUserID) {
		resolved, res := f.resolveLogin(ctx, accessToken, providerUserID)
		if res != nil {
			return res
		}
		login = resolved
	}

	activities := make([]RawActivity, 0, cfg.MaxResults)
	for page := 1; page <= githubMaxPages; page++ {
		target := fmt.Sprintf("%s/users/%s/events?per_page=%d&page=%d",
			f.baseURL, url.PathEscape(login), githubPerPage, page)

		status, header, body, err := getJSON(ctx, f.doer, target, accessToken, f.headers())
		if err != nil {
			return failure(ErrorNetwork, fmt.Sprintf("GitHub request failed: %v", err))
		}
		if status != http.StatusOK {
			return githubHTTPFailure(status, header)
		}

		var events []githubEvent
		if err := json.Unmarshal(body, &events); err != nil {
			return failure(ErrorHTTP, fmt.Sprintf("invalid GitHub response: %v", err))
		}

		reachedCutoff := false
		for _, ev := range events {
			if ev.CreatedAt.Before(cutoff) {
				reachedCutoff = true
				continue
			}
			for _, raw := range eventToRawActivities(ev) {
				activities = append(activities, raw)
				if len(activities) >= cfg.MaxResults {
					return success(activities)
				}
			}
		}

		// Events are newest first; nothing older is useful.
		if reachedCutoff || len(events) < githubPerPage {
			break
		}
	}

	log.Debug().
		Str("provider", "github").
		Str("login", login).
		Int("count", len(activities)).
		Msg("fetched activities")
	return success(activities)
}

func (f *GitHubFetcher) resolveLogin(
	ctx context.Context,
	accessToken, id string,
) (string, *Result) {
	target := fmt.Sprintf("%s/user/%s", f.baseURL, id)
	status, header, body, err := getJSON(ctx, f.doer, target, accessToken, f.headers())
	if err != nil {
		return "", failure(ErrorNetwork, fmt.Sprintf("GitHub request failed: %v", err))
	}
	if status != http.StatusOK {
		return "", githubHTTPFailure(status, header)
	}

	var user struct {
		Login string `json:"login"`
	}
	if err := json.Unmarshal(body, &user); err != nil || user.Login == "" {
		return "", failure(ErrorNotFound, "GitHub user not found")
	}
	return user.Login, nil
}

func githubHTTPFailure(status int, header http.Header) *Result {
	switch status {
	case http.StatusUnauthorized:
		return failure(ErrorUnauthorized, "GitHub token is unauthorized or expired")
	case http.StatusForbidden:
		if header.Get("X-RateLimit-Remaining") == "0" {
			return failure(ErrorRateLimited, fmt.Sprintf(
				"GitHub rate limit exceeded, resets at %s",
				resetTime(header, "X-RateLimit-Reset"),
			))
		}
		return failure(ErrorForbidden, "GitHub API access forbidden")
	case http.StatusTooManyRequests:
		return failure(ErrorRateLimited, fmt.Sprintf(
			"GitHub rate limit exceeded, resets at %s",
			resetTime(header, "X-RateLimit-Reset"),
		))
	case http.StatusNotFound:
		return failure(ErrorNotFound, "GitHub user not found")
	default:
		return failure(ErrorHTTP, fmt.Sprintf("GitHub API error: HTTP %d", status))
	}
}

// eventToRawActivities converts one event. Push events expand to one
// activity per commit; unsupported events and actions yield nil.
func eventToRawActivities(ev githubEvent) []RawActivity {
	repo := ev.Repo.Name
	meta := func(action string) map[string]any {
		return map[string]any{
			MetaEventType: ev.Type,
			MetaRepo:      repo,
			MetaAction:    action,
		}
	}

	switch ev.Type {
	case "PushEvent":
		branch := strings.TrimPrefix(ev.Payload.Ref, "refs/heads/")
		if branch == "" {
			branch = "unknown"
		}
		out := make([]RawActivity, 0, len(ev.Payload.Commits))
		for _, c := range ev.Payload.Commits {
			firstLine, _, _ := strings.Cut(c.Message, "\n")
			desc := fmt.Sprintf("Commit to %s on %s", repo, branch)
			link := fmt.Sprintf("https://github.com/%s/commit/%s", repo, c.SHA)
			m := meta("")
			m["sha"] = c.SHA
			m["branch"] = branch
			out = append(out, RawActivity{
				ID:          ev.ID + "-" + c.SHA,
				Timestamp:   ev.CreatedAt,
				Title:       truncate(firstLine, githubTitleLen),
				Description: &desc,
				URL:         &link,
				Metadata:    m,
			})
		}
		return out

	case "PullRequestEvent":
		pr := ev.Payload.PullRequest
		if pr == nil || (ev.Payload.Action != "opened" && ev.Payload.Action != "reopened") {
			return nil
		}
		return []RawActivity{{
			ID:          ev.ID,
			Timestamp:   ev.CreatedAt,
			Title:       truncate(fmt.Sprintf("PR #%d: %s", pr.Number, pr.Title), githubTitleLen),
			Description: strPtr(truncate(pr.Body, githubCommentLen)),
			URL:         strPtr(pr.HTMLURL),
			Metadata:    meta(ev.Payload.Action),
		}}

	case "IssuesEvent":
		issue := ev.Payload.Issue
		if issue == nil || ev.Payload.Action != "opened" {
			return nil
		}
		return []RawActivity{{
			ID:          ev.ID,
			Timestamp:   ev.CreatedAt,
			Title:       truncate(fmt.Sprintf("Issue #%d: %s", issue.Number, issue.Title), githubTitleLen),
			Description: strPtr(truncate(issue.Body, githubCommentLen)),
			URL:         strPtr(issue.HTMLURL),
			Metadata:    meta(ev.Payload.Action),
		}}

	case "IssueCommentEvent":
		issue, comment := ev.Payload.Issue, ev.Payload.Comment
		if issue == nil || comment == nil || ev.Payload.Action != "created" {
			return nil
		}
		return []RawActivity{{
			ID:          ev.ID,
			Timestamp:   ev.CreatedAt,
			Title:       truncate(fmt.Sprintf("Comment on #%d: %s", issue.Number, issue.Title), githubTitleLen),
			Description: strPtr(truncate(comment.Body, githubCommentLen)),
			URL:         strPtr(comment.HTMLURL),
			Metadata:    meta(ev.Payload.Action),
		}}

	default:
		return nil
	}
}

// MapToProcessedActivity classifies comments as community answers and
// everything else as open source contributions.
func (f *GitHubFetcher) MapToProcessedActivity(raw RawActivity) models.ProcessedActivity {
	activityType, points := models.ActivityOSSContribution, 50
	if metaString(raw.Metadata, MetaEventType) == "IssueCommentEvent" {
		activityType, points = models.ActivityCommunityAnswers, 25
	}

	return models.ProcessedActivity{
		Provider:           models.ProviderGitHub,
		ProviderActivityID: raw.ID,
		ActivityType:       activityType,
		Title:              raw.Title,
		Description:        raw.Description,
		URL:                raw.URL,
		SuggestedPoints:    points,
		EventDate:          timePtr(raw.Timestamp),
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
