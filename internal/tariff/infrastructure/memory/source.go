package memory

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	tariff "gd-invoice/internal/tariff/domain"
)

// RateCardSource is an in-memory rate card source.
type RateCardSource struct {
	mu    sync.RWMutex
	cards []*tariff.RateCard
}

// NewRateCardSource constructs a source with the given cards.
func NewRateCardSource(cards ...tariff.RateCard) (*RateCardSource, error) {
	s := &RateCardSource{}
	for _, card := range cards {
		if err := s.Add(card); err != nil {
			return nil, err
		}
	}
	return s, nil
}

type seedFile struct {
	RateCards []tariff.RateCard `yaml:"rate_cards"`
}

// LoadYAML builds a source from a YAML seed file.
func LoadYAML(path string) (*RateCardSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseYAML(data)
}

// ParseYAML builds a source from YAML content.
func ParseYAML(data []byte) (*RateCardSource, error) {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, err
	}
	return NewRateCardSource(seed.RateCards...)
}

// Add stores a validated copy of the card.
func (s *RateCardSource) Add(card tariff.RateCard) error {
	if err := card.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cards = append(s.cards, card.Clone())
	sort.SliceStable(s.cards, func(i, j int) bool {
		return s.cards[i].ValidFrom.After(s.cards[j].ValidFrom)
	})
	s.mu.Unlock()
	return nil
}

// Upsert replaces the card with the same id, or adds it.
func (s *RateCardSource) Upsert(ctx context.Context, card tariff.RateCard) error {
	_ = ctx
	if err := card.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	kept := s.cards[:0]
	for _, existing := range s.cards {
		if card.ID == "" || existing.ID != card.ID {
			kept = append(kept, existing)
		}
	}
	s.cards = kept
	s.mu.Unlock()
	return s.Add(card)
}

// Lookup returns the most recent card covering the query instant.
func (s *RateCardSource) Lookup(ctx context.Context, query tariff.Query) (*tariff.RateCard, error) {
	_ = ctx
	if err := query.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, card := range s.cards {
		if !strings.EqualFold(card.Distributor, query.Distributor) || card.Group != query.Group {
			continue
		}
		if query.Modality != "" && !strings.EqualFold(card.Modality, query.Modality) {
			continue
		}
		if !card.Covers(query.At) {
			continue
		}
		return card.Clone(), nil
	}
	return nil, nil
}

// Len returns the number of stored cards.
func (s *RateCardSource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cards)
}
