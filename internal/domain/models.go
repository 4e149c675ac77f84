// Package domain provides core domain models and types.
package domain

import "time"

// CommentStyle selects the tone used when generating reply text.
type CommentStyle string

const (
	StyleProfessional CommentStyle = "professional"
	StyleFriendly     CommentStyle = "friendly"
	StyleInformative  CommentStyle = "informative"
	StyleCasual       CommentStyle = "casual"
)

// Valid reports whether the style is one of the known comment styles.
func (s CommentStyle) Valid() bool {
	switch s {
	case StyleProfessional, StyleFriendly, StyleInformative, StyleCasual:
		return true
	}
	return false
}

// Cookie is one authentication cookie handed unmodified to the browser session.
type Cookie struct {
	Name     string `json:"name" msgpack:"name"`
	Value    string `json:"value" msgpack:"value"`
	Domain   string `json:"domain,omitempty" msgpack:"domain,omitempty"`
	Path     string `json:"path,omitempty" msgpack:"path,omitempty"`
	HTTPOnly bool   `json:"http_only,omitempty" msgpack:"http_only,omitempty"`
	Secure   bool   `json:"secure,omitempty" msgpack:"secure,omitempty"`
}

// Account is a managed identity capable of performing engagement actions.
// The engine treats an Account as an immutable snapshot for the duration of
// one account's processing window; only the account store mutates it.
type Account struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Enabled       bool         `json:"enabled"`
	CanLike       bool         `json:"can_like"`
	CanRetweet    bool         `json:"can_retweet"`
	CanComment    bool         `json:"can_comment"`
	UseAI         bool         `json:"use_ai"`
	CommentStyle  CommentStyle `json:"comment_style"`
	Cookies       []Cookie     `json:"cookies,omitempty"`
	Validated     *bool        `json:"validated,omitempty"`
	LastValidated *time.Time   `json:"last_validated,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// ActionDistribution is the per-account allow/deny decision for one run.
type ActionDistribution struct {
	Like    bool `json:"like"`
	Retweet bool `json:"retweet"`
	Comment bool `json:"comment"`
}

// UsageStats holds historical action counts for one account name.
type UsageStats struct {
	AccountName  string `json:"account_name"`
	LikeCount    int    `json:"like_count"`
	RetweetCount int    `json:"retweet_count"`
	CommentCount int    `json:"comment_count"`
}

// ActivityActions records which actions succeeded for one account in one run.
type ActivityActions struct {
	Liked     bool `json:"liked"`
	Retweeted bool `json:"retweeted"`
	Commented bool `json:"commented"`
}

// Activity is one per-account outcome record, handed to the activity recorder.
type Activity struct {
	ID          string          `json:"id"`
	TargetURL   string          `json:"target_url"`
	AccountName string          `json:"account_name"`
	Actions     ActivityActions `json:"actions"`
	CommentText string          `json:"comment_text,omitempty"`
	Duration    time.Duration   `json:"duration_ms"`
	Timestamp   time.Time       `json:"timestamp"`
}

// LogLevel classifies a log bus entry.
type LogLevel string

const (
	LogInfo    LogLevel = "info"
	LogSuccess LogLevel = "success"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
)

// LogEntry is one append-only run progress record.
type LogEntry struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	AccountID    string    `json:"account_id"`
	AccountName  string    `json:"account_name"`
	Level        LogLevel  `json:"level"`
	Message      string    `json:"message"`
	AccountColor string    `json:"account_color"`
	Timestamp    time.Time `json:"timestamp"`
}
