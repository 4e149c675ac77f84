package automation

import (
	"math/rand"
	"sync"
	"time"
)

// defaultPhrases is the fallback reply pool used when AI generation is
// disabled or unavailable.
var defaultPhrases = []string{
	"Great post, thanks for sharing! 👏",
	"This is really inspiring 🙌",
	"Couldn't agree more 💯",
	"Exactly what I needed to read today ❤️",
	"Well said! 👍",
	"Saving this one 🔖",
	"Such a good point 🎯",
	"Keep them coming! 💪",
	"Short but so true ✨",
	"Thought-provoking, thanks 🤔",
	"🔥🔥🔥",
	"💯",
	"👏👏👏",
	"❤️",
	"🙌",
	"💪💪",
	"✨✨✨",
	"🎯",
	"👍👍",
	"🔥",
	"Everyone should see this 📢",
	"Best take on this topic 👏",
	"Perfect summary ✨",
	"Sharing this 🔄",
	"Love this perspective ❤️",
}

// Pool draws reply phrases at random without repeating one until every
// phrase has been used, then resets. Safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	phrases []string
	used    map[string]bool
	rand    *rand.Rand
}

// NewPool creates a phrase pool. With no arguments the default phrases are
// used.
func NewPool(phrases ...string) *Pool {
	if len(phrases) == 0 {
		phrases = defaultPhrases
	}
	return &Pool{
		phrases: phrases,
		used:    make(map[string]bool),
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns a phrase that has not been drawn since the last reset. Once
// the pool is exhausted the used set is cleared and repeats become possible.
func (p *Pool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	available := make([]string, 0, len(p.phrases))
	for _, phrase := range p.phrases {
		if !p.used[phrase] {
			available = append(available, phrase)
		}
	}

	if len(available) == 0 {
		p.used = make(map[string]bool)
		available = p.phrases
	}

	phrase := available[p.rand.Intn(len(available))]
	p.used[phrase] = true
	return phrase
}

// Reset clears the used set.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.used = make(map[string]bool)
}
