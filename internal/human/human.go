// Package human turns chat input into keystroke actions with human-like
// pacing. Some chat widgets drop or reorder characters sent in one burst.
package human

import (
	"math/rand"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

type Mode string

const (
	Instant Mode = "instant"
	Human   Mode = "human"
	Fast    Mode = "fast"
)

// pace is the gap left after each keystroke: key plus up to jitter.
type pace struct {
	key    time.Duration
	jitter time.Duration
}

var paces = map[Mode]pace{
	Human: {key: 80 * time.Millisecond, jitter: 40 * time.Millisecond},
	Fast:  {key: 40 * time.Millisecond, jitter: 20 * time.Millisecond},
}

const (
	hesitateChance = 0.05
	hesitateSpan   = 500 * time.Millisecond

	// A typo is one wrong key, a pause to notice it, then a backspace.
	typoChance     = 0.03
	typoNoticeMin  = 50 * time.Millisecond
	typoNoticeSpan = 100 * time.Millisecond
	typoFixMin     = 30 * time.Millisecond
	typoFixSpan    = 70 * time.Millisecond

	submitMin  = 150 * time.Millisecond
	submitSpan = 250 * time.Millisecond
)

var humanRand = rand.New(rand.NewSource(time.Now().UnixNano()))

func SetRandSeed(seed int64) {
	humanRand = rand.New(rand.NewSource(seed))
}

// Config allows injecting a custom random source for testing
type Config struct {
	Rand *rand.Rand
}

func (c *Config) getRand() *rand.Rand {
	if c != nil && c.Rand != nil {
		return c.Rand
	}
	return humanRand
}

// between returns lo plus a uniform draw from [0, span).
func between(rng *rand.Rand, lo, span time.Duration) time.Duration {
	return lo + time.Duration(rng.Int63n(int64(span)))
}

// Type returns the key actions for text in the given mode. Instant mode is a
// single key event carrying the whole string.
func Type(text string, mode Mode) []chromedp.Action {
	return TypeWithConfig(text, mode, nil)
}

func TypeWithConfig(text string, mode Mode, cfg *Config) []chromedp.Action {
	if text == "" {
		return nil
	}
	p, paced := paces[mode]
	if !paced {
		return []chromedp.Action{chromedp.KeyEvent(text)}
	}

	strokes := plan(text, p, cfg.getRand())
	actions := make([]chromedp.Action, 0, len(strokes)*2)
	for _, s := range strokes {
		actions = append(actions, chromedp.KeyEvent(s.key), chromedp.Sleep(s.wait))
	}
	return actions
}

// stroke is one key press and the pause after it.
type stroke struct {
	key  string
	wait time.Duration
}

func plan(text string, p pace, rng *rand.Rand) []stroke {
	runes := []rune(text)
	strokes := make([]stroke, 0, len(runes))
	for i, r := range runes {
		gap := between(rng, p.key, p.jitter)
		if rng.Float64() < hesitateChance {
			gap += time.Duration(rng.Int63n(int64(hesitateSpan)))
		}
		// Repeated letters come quicker.
		if i > 0 && r == runes[i-1] {
			gap /= 2
		}
		strokes = append(strokes, stroke{key: string(r), wait: gap})

		if i < len(runes)-1 && rng.Float64() < typoChance {
			strokes = append(strokes,
				stroke{key: string(rune('a' + rng.Intn(26))), wait: between(rng, typoNoticeMin, typoNoticeSpan)},
				stroke{key: kb.Backspace, wait: between(rng, typoFixMin, typoFixSpan)},
			)
		}
	}
	return strokes
}

// Submit presses Enter, after a short pause outside instant mode.
func Submit(mode Mode) []chromedp.Action {
	if _, paced := paces[mode]; !paced {
		return []chromedp.Action{chromedp.KeyEvent(kb.Enter)}
	}
	return []chromedp.Action{
		chromedp.Sleep(between(humanRand, submitMin, submitSpan)),
		chromedp.KeyEvent(kb.Enter),
	}
}

// maxRuneDelay is the longest a single rune can take in mode: the widest
// gap, a hesitation and a typo correction all at once.
func maxRuneDelay(mode Mode) time.Duration {
	p, paced := paces[mode]
	if !paced {
		return 0
	}
	return p.key + p.jitter + hesitateSpan +
		typoNoticeMin + typoNoticeSpan + typoFixMin + typoFixSpan
}

// Budget is an upper bound on the time Type and Submit sleep for text.
func Budget(text string, mode Mode) time.Duration {
	if _, paced := paces[mode]; !paced || text == "" {
		return 0
	}
	n := time.Duration(len([]rune(text)))
	return n*maxRuneDelay(mode) + submitMin + submitSpan
}
