package human

import (
	"math/rand"
	"testing"
	"time"

	"github.com/chromedp/chromedp/kb"
)

func TestTypeInstant(t *testing.T) {
	actions := Type("hello", Instant)
	if len(actions) != 1 {
		t.Errorf("instant typing = %d actions, want 1", len(actions))
	}
	if got := Type("", Human); got != nil {
		t.Errorf("empty text = %d actions, want none", len(got))
	}
}

func TestTypeHuman(t *testing.T) {
	text := "hello"

	actions := Type(text, Human)
	if len(actions) < len(text)*2 {
		t.Errorf("expected at least %d actions, got %d", len(text)*2, len(actions))
	}

	fastActions := Type(text, Fast)
	if len(fastActions) < len(text)*2 {
		t.Errorf("expected at least %d actions, got %d", len(text)*2, len(fastActions))
	}
}

func TestTypeDeterministicWithSeed(t *testing.T) {
	text := "what are your opening hours on a public holiday?"
	a := TypeWithConfig(text, Human, &Config{Rand: rand.New(rand.NewSource(7))})
	b := TypeWithConfig(text, Human, &Config{Rand: rand.New(rand.NewSource(7))})
	if len(a) != len(b) {
		t.Errorf("same seed gave %d and %d actions", len(a), len(b))
	}
}

func TestTypeWithCorrections(t *testing.T) {
	SetRandSeed(1)
	text := "this is a very long string to increase the chance of a simulated typo correction"
	actions := Type(text, Human)

	// Every rune costs a key event and a sleep; typos add four more.
	if len(actions) < len([]rune(text))*2 {
		t.Errorf("expected many actions for long string, got %d", len(actions))
	}
}

func TestSubmit(t *testing.T) {
	if got := len(Submit(Instant)); got != 1 {
		t.Errorf("Submit(Instant) = %d actions, want 1", got)
	}
	if got := len(Submit(Human)); got != 2 {
		t.Errorf("Submit(Human) = %d actions, want 2", got)
	}
}

func TestBudget(t *testing.T) {
	tests := []struct {
		msg  string
		mode Mode
		want time.Duration
	}{
		{"hello", Instant, 0},
		{"", Human, 0},
		{"hello", Human, 5*870*time.Millisecond + 400*time.Millisecond},
		{"héllo", Fast, 5*810*time.Millisecond + 400*time.Millisecond},
	}
	for _, tt := range tests {
		if got := Budget(tt.msg, tt.mode); got != tt.want {
			t.Errorf("Budget(%q, %s) = %v, want %v", tt.msg, tt.mode, got, tt.want)
		}
	}
}

func TestPlanStaysWithinBudget(t *testing.T) {
	text := "could you tell me when the shop opens on saturdays and sundays?"
	for _, mode := range []Mode{Human, Fast} {
		for seed := int64(0); seed < 200; seed++ {
			var total time.Duration
			for _, s := range plan(text, paces[mode], rand.New(rand.NewSource(seed))) {
				total += s.wait
			}
			if limit := Budget(text, mode) - submitMin - submitSpan; total > limit {
				t.Fatalf("%s seed %d: planned %v, budget %v", mode, seed, total, limit)
			}
		}
	}
}

func TestPlanTypesEveryRune(t *testing.T) {
	text := "héllo wörld"
	strokes := plan(text, paces[Human], rand.New(rand.NewSource(3)))

	// Dropping each wrong key with the backspace that follows it leaves the text.
	var typed []rune
	for _, s := range strokes {
		if s.key == kb.Backspace {
			typed = typed[:len(typed)-1]
			continue
		}
		typed = append(typed, []rune(s.key)...)
	}
	if string(typed) != text {
		t.Errorf("typed %q, want %q", string(typed), text)
	}
}
