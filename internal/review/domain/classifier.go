package domain

import "strings"

// Bucket is the behavioral class of a task's time.
type Bucket string

const (
	BucketSleep      Bucket = "sleep"
	BucketLeisure    Bucket = "leisure"
	BucketProductive Bucket = "productive"
)

// Buckets returns all buckets in classification order.
func Buckets() []Bucket {
	return []Bucket{BucketSleep, BucketLeisure, BucketProductive}
}

// String returns the bucket name.
func (b Bucket) String() string {
	return string(b)
}

// ClassifierConfig holds the keyword lists and categories used to
// classify tasks. Matching is case-insensitive.
type ClassifierConfig struct {
	SleepKeywords     []string `yaml:"sleep_keywords"`
	LeisureKeywords   []string `yaml:"leisure_keywords"`
	LeisureCategories []string `yaml:"leisure_categories"`
}

// DefaultClassifierConfig returns the built-in keyword configuration.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		SleepKeywords:     []string{"sleep", "nap", "睡觉", "午睡", "睡眠"},
		LeisureKeywords:   []string{"game", "movie", "netflix", "youtube", "游戏", "电影", "娱乐", "刷"},
		LeisureCategories: []string{"entertainment", "leisure", "娱乐"},
	}
}

// Classifier assigns tasks to buckets. It holds no mutable state and is
// safe for concurrent use.
type Classifier struct {
	sleepKeywords     []string
	leisureKeywords   []string
	leisureCategories map[string]struct{}
}

// NewClassifier creates a classifier from the given configuration.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	c := &Classifier{
		sleepKeywords:     normalizeKeywords(cfg.SleepKeywords),
		leisureKeywords:   normalizeKeywords(cfg.LeisureKeywords),
		leisureCategories: make(map[string]struct{}, len(cfg.LeisureCategories)),
	}
	for _, cat := range normalizeKeywords(cfg.LeisureCategories) {
		c.leisureCategories[cat] = struct{}{}
	}
	return c
}

func normalizeKeywords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// Classify returns the bucket for a task. Sleep keywords win over leisure,
// and anything unmatched is productive.
func (c *Classifier) Classify(task NormalizedTask) Bucket {
	title := strings.ToLower(task.Title)
	if containsAny(title, c.sleepKeywords) {
		return BucketSleep
	}
	if _, ok := c.leisureCategories[strings.ToLower(strings.TrimSpace(task.Category))]; ok {
		return BucketLeisure
	}
	if containsAny(title, c.leisureKeywords) {
		return BucketLeisure
	}
	return BucketProductive
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
