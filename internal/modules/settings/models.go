package settings

import "github.com/eacar/amplify/internal/distribution"

// Setting keys for automatic distribution.
const (
	KeyAutoDistributionEnabled = "auto_distribution_enabled"
	KeyAutoLikePercent         = "auto_like_percent"
	KeyAutoRetweetPercent      = "auto_retweet_percent"
	KeyAutoCommentPercent      = "auto_comment_percent"
)

// Default percentages applied when no setting has been stored yet.
const (
	DefaultLikePercent    = 100
	DefaultRetweetPercent = 30
	DefaultCommentPercent = 35
)

// AutoDistribution is the persisted automatic distribution configuration.
type AutoDistribution struct {
	Enabled     bool                     `json:"enabled"`
	Percentages distribution.Percentages `json:"percentages"`
}

// SettingUpdate is the request body for updating a single setting.
type SettingUpdate struct {
	Value string `json:"value"`
}
