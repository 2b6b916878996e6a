package models

import (
	"time"
)

// ActivityType tags a normalized activity for scoring.
type ActivityType string

const (
	ActivityBlogPost         ActivityType = "blog_post"
	ActivityOSSContribution  ActivityType = "oss_contribution"
	ActivityCommunityAnswers ActivityType = "community_answers"
	ActivityVideoTutorial    ActivityType = "video_tutorial"
)

// DefaultActivityPoints is the shared scoring table. Fetchers may suggest
// different values; their suggestion wins.
var DefaultActivityPoints = map[ActivityType]int{
	ActivityBlogPost:         100,
	ActivityOSSContribution:  50,
	ActivityCommunityAnswers: 25,
	ActivityVideoTutorial:    150,
}

// PendingStatus is the status of a freshly staged activity.
const PendingStatus = "pending"

// ProcessedActivity is a fetcher's normalized output, ready for staging.
type ProcessedActivity struct {
	Provider           Provider     `json:"provider"`
	ProviderActivityID string       `json:"providerActivityId"`
	ActivityType       ActivityType `json:"activityType"`
	Title              string       `json:"title"`
	Description        *string      `json:"description"`
	URL                *string      `json:"url"`
	SuggestedPoints    int          `json:"suggestedPoints"`
	EventDate          *time.Time   `json:"eventDate"`
}

// PendingActivity is a staged activity awaiting human review.
type PendingActivity struct {
	ID                 string       `gorm:"primaryKey"`
	UserID             string       `gorm:"not null;uniqueIndex:idx_pending_user_provider_activity,priority:1"`
	Provider           Provider     `gorm:"not null;uniqueIndex:idx_pending_user_provider_activity,priority:2"`
	ProviderActivityID string       `gorm:"not null;uniqueIndex:idx_pending_user_provider_activity,priority:3"`
	ActivityType       ActivityType `gorm:"not null"`
	Title              string       `gorm:"not null"`
	Description        *string      `gorm:"type:text"`
	URL                *string
	SuggestedPoints    int
	EventDate          *time.Time
	Status             string `gorm:"not null;default:pending;index"`

	CreatedAt time.Time
}

// TableName overrides the table name used by PendingActivity to `pending_activities`
func (PendingActivity) TableName() string {
	return "pending_activities"
}

// NewPendingActivity stages a processed activity for userID.
func NewPendingActivity(id, userID string, a ProcessedActivity) *PendingActivity {
	return &PendingActivity{
		ID:                 id,
		UserID:             userID,
		Provider:           a.Provider,
		ProviderActivityID: a.ProviderActivityID,
		ActivityType:       a.ActivityType,
		Title:              a.Title,
		Description:        a.Description,
		URL:                a.URL,
		SuggestedPoints:    a.SuggestedPoints,
		EventDate:          a.EventDate,
		Status:             PendingStatus,
	}
}
