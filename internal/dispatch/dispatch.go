package dispatch

import (
	"fmt"
	"strings"
)

// Built-in keywords and replies
const (
	KeywordPython = "python"
	KeywordJava   = "java"
	ReplyPython   = "Pong Python"
	ReplyJava     = "Pong Java"
)

// Rule maps a keyword to the reply sent when the keyword occurs in a message
type Rule struct {
	Keyword string
	Reply   string
}

// DefaultRules returns the python/java rules in match order
func DefaultRules() []Rule {
	return []Rule{
		{Keyword: KeywordPython, Reply: ReplyPython},
		{Keyword: KeywordJava, Reply: ReplyJava},
	}
}

// Classifier picks the reply for a message. The first matching rule wins.
// It holds no per-sender state and is safe for concurrent use.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier from rules in match order.
// An empty rule list falls back to DefaultRules.
func NewClassifier(rules []Rule) (*Classifier, error) {
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	normalized := make([]Rule, 0, len(rules))
	for i, r := range rules {
		keyword := strings.ToLower(strings.TrimSpace(r.Keyword))
		if keyword == "" {
			return nil, fmt.Errorf("rule %d: empty keyword", i)
		}
		if r.Reply == "" {
			return nil, fmt.Errorf("rule %d (%s): empty reply", i, keyword)
		}
		normalized = append(normalized, Rule{Keyword: keyword, Reply: r.Reply})
	}

	return &Classifier{rules: normalized}, nil
}

// Classify returns the reply for text and whether any rule matched
func (c *Classifier) Classify(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, r := range c.rules {
		if strings.Contains(lower, r.Keyword) {
			return r.Reply, true
		}
	}
	return "", false
}

// Rules returns a copy of the normalized rules
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}
