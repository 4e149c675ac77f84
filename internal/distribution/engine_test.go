package distribution

import (
	"testing"

	"github.com/eacar/amplify/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func account(id, name string, like, retweet, comment bool) domain.Account {
	return domain.Account{
		ID:         id,
		Name:       name,
		Enabled:    true,
		CanLike:    like,
		CanRetweet: retweet,
		CanComment: comment,
	}
}

func TestManual_PassesCapabilityFlagsThrough(t *testing.T) {
	acc := account("1", "alice", true, false, true)

	dist := Manual(acc)

	assert.Equal(t, domain.ActionDistribution{Like: true, Retweet: false, Comment: true}, dist)
}

func TestAutomatic_ExampleScenario(t *testing.T) {
	// 3 enabled accounts, likePct=100, retweetPct=34, commentPct=0:
	// all 3 like, ceil(0.34*3)=2 lowest-usage retweet, nobody comments.
	accounts := []domain.Account{
		account("1", "alice", true, true, true),
		account("2", "bob", true, true, true),
		account("3", "carol", true, true, true),
	}
	usage := map[string]domain.UsageStats{
		"alice": {AccountName: "alice", RetweetCount: 5},
		"bob":   {AccountName: "bob", RetweetCount: 1},
		"carol": {AccountName: "carol", RetweetCount: 3},
	}

	dists := Automatic(accounts, Percentages{Like: 100, Retweet: 34, Comment: 0}, usage)

	require.Len(t, dists, 3)
	for _, id := range []string{"1", "2", "3"} {
		assert.True(t, dists[id].Like, "account %s should like", id)
		assert.False(t, dists[id].Comment, "account %s should not comment", id)
	}

	// bob (1) and carol (3) have the lowest retweet usage.
	assert.False(t, dists["1"].Retweet)
	assert.True(t, dists["2"].Retweet)
	assert.True(t, dists["3"].Retweet)
}

func TestAutomatic_TiesPreserveInputOrder(t *testing.T) {
	accounts := []domain.Account{
		account("1", "alice", true, false, false),
		account("2", "bob", true, false, false),
		account("3", "carol", true, false, false),
	}
	// All tied at zero usage: the first target-count accounts in input order win.
	dists := Automatic(accounts, Percentages{Like: 50}, map[string]domain.UsageStats{})

	assert.True(t, dists["1"].Like)
	assert.True(t, dists["2"].Like)
	assert.False(t, dists["3"].Like)
}

func TestAutomatic_CapabilityGating(t *testing.T) {
	accounts := []domain.Account{
		account("1", "alice", false, false, false), // zero usage but not capable
		account("2", "bob", true, false, false),
	}
	usage := map[string]domain.UsageStats{
		"bob": {AccountName: "bob", LikeCount: 99},
	}

	dists := Automatic(accounts, Percentages{Like: 50}, usage)

	assert.False(t, dists["1"].Like)
	assert.True(t, dists["2"].Like)
}

func TestAutomatic_TargetExceedsEligible(t *testing.T) {
	accounts := []domain.Account{
		account("1", "alice", false, true, false),
		account("2", "bob", false, true, false),
	}

	dists := Automatic(accounts, Percentages{Like: 100, Retweet: 100}, map[string]domain.UsageStats{})

	// No like-capable accounts: nobody is selected, no error.
	assert.False(t, dists["1"].Like)
	assert.False(t, dists["2"].Like)
	assert.True(t, dists["1"].Retweet)
	assert.True(t, dists["2"].Retweet)
}

func TestAutomatic_SelectedCountMatchesFormula(t *testing.T) {
	cases := []struct {
		name     string
		pct      int
		n        int
		eligible int
		expected int
	}{
		{"zero pct", 0, 5, 5, 0},
		{"rounds up", 34, 3, 3, 2},
		{"full", 100, 4, 4, 4},
		{"capped by eligible", 100, 4, 2, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			accounts := make([]domain.Account, 0, tc.n)
			for i := 0; i < tc.n; i++ {
				acc := account(string(rune('a'+i)), string(rune('a'+i)), i < tc.eligible, false, false)
				accounts = append(accounts, acc)
			}

			dists := Automatic(accounts, Percentages{Like: tc.pct}, map[string]domain.UsageStats{})

			selected := 0
			for _, d := range dists {
				if d.Like {
					selected++
				}
			}
			assert.Equal(t, tc.expected, selected)
		})
	}
}

func TestResolve(t *testing.T) {
	acc := account("1", "alice", true, true, false)
	computed := map[string]domain.ActionDistribution{
		"1": {Like: true},
	}

	assert.Equal(t, domain.ActionDistribution{Like: true}, Resolve(acc, true, computed))
	assert.Equal(t, Manual(acc), Resolve(acc, false, computed))

	// Absent from the precomputed map: defensive all-false.
	other := account("9", "zed", true, true, true)
	assert.Equal(t, domain.ActionDistribution{}, Resolve(other, true, computed))
}
