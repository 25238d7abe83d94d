// Package genfaker defines the random-primitive collaborator the
// engine's ValueFactory delegates strings, dates and text generation
// to, plus a dependency-free default implementation of it.
package genfaker

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// Faker is the minimal contract for the random-text/date/name
// primitive collaborator ValueFactory builds column values from.
// Implementations need not be thread-safe; the engine never calls one
// concurrently.
type Faker interface {
	RandomLetters(length int) string
	RandomInt(min, max int) int
	RandomElement(choices []string) string
	RandomElements(choices []string) []string
	Text(maxChars int) string
	Sentence() string
	Date() time.Time
	DateTime() time.Time
	Bothify(pattern string) string
}

const letters = "abcdefghijklmnopqrstuvwxyz"

var sentenceWords = []string{
	"the", "quick", "brown", "fox", "jumps", "over", "lazy", "dog",
	"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf",
	"market", "signal", "value", "system", "record", "report",
}

// DefaultFaker is a small, deterministic-shape (but not
// deterministic-output — it wraps math/rand) implementation of Faker.
// It exists so the engine has something to run against out of the box;
// callers wanting realistic data should supply their own Faker backed
// by a real generator library.
type DefaultFaker struct {
	rng *rand.Rand
}

// NewDefaultFaker returns a DefaultFaker seeded from seed. Use the same
// seed across a run for reproducible-shape output.
func NewDefaultFaker(seed int64) *DefaultFaker {
	return &DefaultFaker{rng: rand.New(rand.NewSource(seed))}
}

func (f *DefaultFaker) RandomLetters(length int) string {
	if length <= 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		sb.WriteByte(letters[f.rng.Intn(len(letters))])
	}
	return sb.String()
}

func (f *DefaultFaker) RandomInt(min, max int) int {
	if max <= min {
		return min
	}
	return min + f.rng.Intn(max-min+1)
}

func (f *DefaultFaker) RandomElement(choices []string) string {
	if len(choices) == 0 {
		return ""
	}
	return choices[f.rng.Intn(len(choices))]
}

func (f *DefaultFaker) RandomElements(choices []string) []string {
	if len(choices) == 0 {
		return nil
	}
	n := f.RandomInt(1, len(choices))
	shuffled := append([]string(nil), choices...)
	f.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled[:n]
}

func (f *DefaultFaker) Text(maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	var sb strings.Builder
	for sb.Len() < maxChars {
		word := sentenceWords[f.rng.Intn(len(sentenceWords))]
		if sb.Len() > 0 {
			if sb.Len()+1 >= maxChars {
				break
			}
			sb.WriteByte(' ')
		}
		if sb.Len()+len(word) > maxChars {
			remaining := maxChars - sb.Len()
			if remaining > 0 {
				sb.WriteString(word[:remaining])
			}
			break
		}
		sb.WriteString(word)
	}
	return sb.String()
}

func (f *DefaultFaker) Sentence() string {
	n := f.RandomInt(4, 10)
	words := make([]string, n)
	for i := range words {
		words[i] = sentenceWords[f.rng.Intn(len(sentenceWords))]
	}
	return strings.Join(words, " ") + "."
}

func (f *DefaultFaker) Date() time.Time {
	return f.DateTime().Truncate(24 * time.Hour)
}

func (f *DefaultFaker) DateTime() time.Time {
	// Spread across roughly the last 20 years.
	start := time.Now().AddDate(-20, 0, 0).Unix()
	end := time.Now().Unix()
	sec := f.RandomInt(int(start), int(end))
	return time.Unix(int64(sec), 0).UTC()
}

func (f *DefaultFaker) Bothify(pattern string) string {
	var sb strings.Builder
	for _, r := range pattern {
		if r == '#' {
			sb.WriteString(strconv.Itoa(f.rng.Intn(10)))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
