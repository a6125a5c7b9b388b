package extract

import (
	"fmt"
	"log/slog"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
)

// Strategy is one way of pulling records out of a document.
type Strategy[T any] interface {
	Name() string
	Extract(doc *Document) ([]T, error)
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc[T any] struct {
	Label string
	Fn    func(doc *Document) ([]T, error)
}

// Name implements Strategy
func (s StrategyFunc[T]) Name() string { return s.Label }

// Extract implements Strategy
func (s StrategyFunc[T]) Extract(doc *Document) ([]T, error) { return s.Fn(doc) }

// Chain evaluates strategies in rank order and returns the first non-empty
// result. Strategy errors are logged and treated as empty.
type Chain[T any] struct {
	Source     string
	Strategies []Strategy[T]
}

// NewChain builds a chain for source.
func NewChain[T any](source string, strategies ...Strategy[T]) Chain[T] {
	return Chain[T]{Source: source, Strategies: strategies}
}

// Run executes the chain. When every strategy comes up empty the error wraps
// cricket.ErrExtractionEmpty.
func (c Chain[T]) Run(doc *Document) ([]T, error) {
	for _, s := range c.Strategies {
		records, err := s.Extract(doc)
		if err != nil {
			slog.Debug("Extraction strategy failed", "source", c.Source, "strategy", s.Name(), "error", err)
			continue
		}
		if len(records) > 0 {
			slog.Debug("Extraction strategy matched", "source", c.Source, "strategy", s.Name(), "records", len(records))
			return records, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", c.Source, cricket.ErrExtractionEmpty)
}
