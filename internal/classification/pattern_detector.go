// Package classification suggests categories for imported transactions from
// keyword patterns in their descriptions.
package classification

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/Veraticus/mycash/internal/model"
)

// Pattern maps description keywords onto a category.
type Pattern struct {
	Category   string
	Kind       model.Kind
	Regex      string
	Priority   int     // Higher priority patterns are checked first
	Confidence float64 // Base confidence when pattern matches (0.0-1.0)
}

// CompiledPattern holds a compiled regex pattern with metadata.
type CompiledPattern struct {
	compiledRegex *regexp.Regexp
	Pattern
}

// PatternDetector suggests categories for transaction drafts.
type PatternDetector struct {
	patterns []CompiledPattern
	mu       sync.RWMutex
}

// NewPatternDetector creates a new pattern detector with the given patterns.
func NewPatternDetector(patterns []Pattern) (*PatternDetector, error) {
	compiled, err := compile(patterns)
	if err != nil {
		return nil, err
	}
	return &PatternDetector{patterns: compiled}, nil
}

func compile(patterns []Pattern) ([]CompiledPattern, error) {
	compiled := make([]CompiledPattern, 0, len(patterns))
	for _, p := range patterns {
		regexStr := p.Regex
		if !strings.HasPrefix(regexStr, "(?i)") {
			regexStr = "(?i)" + regexStr
		}

		regex, err := regexp.Compile(regexStr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern for %s: %w", p.Category, err)
		}

		compiled = append(compiled, CompiledPattern{
			Pattern:       p,
			compiledRegex: regex,
		})
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})
	return compiled, nil
}

// Match is a suggested category.
type Match struct {
	Category   string
	Kind       model.Kind
	Confidence float64
}

// Classify returns the highest priority pattern matching the draft's description
// and notes, or nil. Only patterns of the draft's kind are considered.
func (pd *PatternDetector) Classify(draft model.TransactionInput) *Match {
	pd.mu.RLock()
	defer pd.mu.RUnlock()

	kind, ok := model.ParseKind(draft.Type)
	if !ok {
		return nil
	}
	searchText := draft.Description + " " + draft.Notes

	for _, pattern := range pd.patterns {
		if pattern.Kind != kind || !pattern.compiledRegex.MatchString(searchText) {
			continue
		}
		confidence := pattern.Confidence
		// Longer expressions are more specific.
		if len(pattern.Regex) > 20 {
			confidence = min(confidence+0.05, 1.0)
		}
		return &Match{
			Category:   pattern.Category,
			Kind:       pattern.Kind,
			Confidence: confidence,
		}
	}
	return nil
}

// ClassifyBatch classifies drafts by index. Drafts without a match are absent.
func (pd *PatternDetector) ClassifyBatch(ctx context.Context, drafts []model.TransactionInput) (map[int]*Match, error) {
	results := make(map[int]*Match, len(drafts))
	for i, draft := range drafts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if match := pd.Classify(draft); match != nil {
			results[i] = match
		}
	}
	return results, nil
}

// UpdatePatterns replaces the detector's patterns.
func (pd *PatternDetector) UpdatePatterns(patterns []Pattern) error {
	compiled, err := compile(patterns)
	if err != nil {
		return err
	}

	pd.mu.Lock()
	pd.patterns = compiled
	pd.mu.Unlock()
	return nil
}

// GetPatternCount returns the number of loaded patterns.
func (pd *PatternDetector) GetPatternCount() int {
	pd.mu.RLock()
	defer pd.mu.RUnlock()
	return len(pd.patterns)
}
