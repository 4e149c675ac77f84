// Package distribution decides per-account action eligibility for a run.
//
// Manual mode passes each account's own capability flags through. Automatic
// mode spreads a target percentage of the run's accounts across each action
// type independently, preferring accounts with the lowest historical usage
// for that action (usage fairness). The three action types never interact:
// an account can be selected for one, several, or none.
package distribution

import (
	"sort"

	"github.com/eacar/amplify/internal/domain"
)

// Percentages holds the automatic-mode target share per action type.
// Each value is 0-100 and governs an independent action type; they are not
// required to sum to 100.
type Percentages struct {
	Like    int
	Retweet int
	Comment int
}

// Manual derives the distribution directly from the account's capability
// flags. Pure, no I/O.
func Manual(account domain.Account) domain.ActionDistribution {
	return domain.ActionDistribution{
		Like:    account.CanLike,
		Retweet: account.CanRetweet,
		Comment: account.CanComment,
	}
}

// Automatic computes one ActionDistribution per account id for the whole run.
//
// For each action type the target count is ceil(pct/100 * len(accounts)).
// Eligible accounts (capability flag true) are ranked by ascending historical
// count for that action type, ties broken by preserving input order, and the
// lowest-usage target-count accounts are marked allowed. When the target
// exceeds the eligible set, every eligible account is allowed.
func Automatic(accounts []domain.Account, pcts Percentages, usage map[string]domain.UsageStats) map[string]domain.ActionDistribution {
	distributions := make(map[string]domain.ActionDistribution, len(accounts))
	for _, account := range accounts {
		distributions[account.ID] = domain.ActionDistribution{}
	}

	total := len(accounts)

	for _, id := range selectLowestUsage(accounts, targetCount(pcts.Like, total), func(a domain.Account) bool { return a.CanLike }, func(s domain.UsageStats) int { return s.LikeCount }, usage) {
		d := distributions[id]
		d.Like = true
		distributions[id] = d
	}

	for _, id := range selectLowestUsage(accounts, targetCount(pcts.Retweet, total), func(a domain.Account) bool { return a.CanRetweet }, func(s domain.UsageStats) int { return s.RetweetCount }, usage) {
		d := distributions[id]
		d.Retweet = true
		distributions[id] = d
	}

	for _, id := range selectLowestUsage(accounts, targetCount(pcts.Comment, total), func(a domain.Account) bool { return a.CanComment }, func(s domain.UsageStats) int { return s.CommentCount }, usage) {
		d := distributions[id]
		d.Comment = true
		distributions[id] = d
	}

	return distributions
}

// Resolve dispatches to the manual flags or looks up the precomputed
// automatic-mode result. An account missing from the map resolves to
// all-false rather than falling back to manual flags.
func Resolve(account domain.Account, autoMode bool, computed map[string]domain.ActionDistribution) domain.ActionDistribution {
	if autoMode && computed != nil {
		return computed[account.ID]
	}
	return Manual(account)
}

// targetCount is ceil(pct/100 * total).
func targetCount(pct, total int) int {
	if pct <= 0 || total <= 0 {
		return 0
	}
	return (pct*total + 99) / 100
}

// selectLowestUsage returns the ids of the count lowest-usage accounts among
// those passing the capability filter. The sort is stable so ties preserve
// the original selection order.
func selectLowestUsage(accounts []domain.Account, count int, capable func(domain.Account) bool, metric func(domain.UsageStats) int, usage map[string]domain.UsageStats) []string {
	eligible := make([]domain.Account, 0, len(accounts))
	for _, account := range accounts {
		if capable(account) {
			eligible = append(eligible, account)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return metric(usage[eligible[i].Name]) < metric(usage[eligible[j].Name])
	})

	if count > len(eligible) {
		count = len(eligible)
	}

	selected := make([]string, 0, count)
	for _, account := range eligible[:count] {
		selected = append(selected, account.ID)
	}
	return selected
}
