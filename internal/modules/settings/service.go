package settings

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/eacar/amplify/internal/distribution"
)

// Service provides typed access to application settings on top of the
// raw key-value repository.
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new settings service.
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "settings").Logger(),
	}
}

// GetAll returns every stored setting.
func (s *Service) GetAll() (map[string]string, error) {
	return s.repo.GetAll()
}

// Set stores a single setting. Percentage keys are validated to the
// 0-100 range before persisting.
func (s *Service) Set(key, value string) error {
	if isPercentKey(key) {
		pct, err := parsePercent(value)
		if err != nil {
			return err
		}
		return s.repo.SetInt(key, pct)
	}
	return s.repo.Set(key, value)
}

// GetAutoDistribution loads the automatic distribution configuration,
// falling back to defaults for any missing key. Automatic mode is off
// by default.
func (s *Service) GetAutoDistribution() (AutoDistribution, error) {
	enabled, err := s.repo.GetBool(KeyAutoDistributionEnabled, false)
	if err != nil {
		return AutoDistribution{}, err
	}
	like, err := s.repo.GetInt(KeyAutoLikePercent, DefaultLikePercent)
	if err != nil {
		return AutoDistribution{}, err
	}
	retweet, err := s.repo.GetInt(KeyAutoRetweetPercent, DefaultRetweetPercent)
	if err != nil {
		return AutoDistribution{}, err
	}
	comment, err := s.repo.GetInt(KeyAutoCommentPercent, DefaultCommentPercent)
	if err != nil {
		return AutoDistribution{}, err
	}

	return AutoDistribution{
		Enabled: enabled,
		Percentages: distribution.Percentages{
			Like:    like,
			Retweet: retweet,
			Comment: comment,
		},
	}, nil
}

// SetAutoDistribution persists the automatic distribution configuration.
func (s *Service) SetAutoDistribution(cfg AutoDistribution) error {
	for _, pct := range []int{cfg.Percentages.Like, cfg.Percentages.Retweet, cfg.Percentages.Comment} {
		if pct < 0 || pct > 100 {
			return fmt.Errorf("percentage %d out of range 0-100", pct)
		}
	}

	if err := s.repo.SetBool(KeyAutoDistributionEnabled, cfg.Enabled); err != nil {
		return err
	}
	if err := s.repo.SetInt(KeyAutoLikePercent, cfg.Percentages.Like); err != nil {
		return err
	}
	if err := s.repo.SetInt(KeyAutoRetweetPercent, cfg.Percentages.Retweet); err != nil {
		return err
	}
	return s.repo.SetInt(KeyAutoCommentPercent, cfg.Percentages.Comment)
}

func isPercentKey(key string) bool {
	switch key {
	case KeyAutoLikePercent, KeyAutoRetweetPercent, KeyAutoCommentPercent:
		return true
	}
	return false
}

func parsePercent(value string) (int, error) {
	pct, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid percentage %q: %w", value, err)
	}
	if pct < 0 || pct > 100 {
		return 0, fmt.Errorf("percentage %d out of range 0-100", pct)
	}
	return pct, nil
}
