package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"meridian/contexts/rating-operations/rating-scale/domain/entities"
	domainerrors "meridian/contexts/rating-operations/rating-scale/domain/errors"
	"meridian/contexts/rating-operations/rating-scale/ports"
)

// Store is the in-memory symbol catalog used by tests and local wiring.
type Store struct {
	mu       sync.RWMutex
	symbols  map[string]entities.RatingSymbol
	mappings map[string]entities.SymbolMapping
}

func NewStore() *Store {
	return &Store{
		symbols:  make(map[string]entities.RatingSymbol),
		mappings: make(map[string]entities.SymbolMapping),
	}
}

func (s *Store) SetSymbol(symbol entities.RatingSymbol) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symbols[strings.TrimSpace(symbol.Symbol)] = symbol
}

func (s *Store) SetMapping(mapping entities.SymbolMapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[strings.TrimSpace(mapping.FinalRating)] = mapping
}

func (s *Store) GetMappingByFinalRating(_ context.Context, finalRating string) (entities.SymbolMapping, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mapping, found := s.mappings[strings.TrimSpace(finalRating)]
	if !found {
		return entities.SymbolMapping{}, false, nil
	}
	return mapping, true, nil
}

func (s *Store) GetSymbol(_ context.Context, symbol string) (entities.RatingSymbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, found := s.symbols[strings.TrimSpace(symbol)]
	if !found || !row.Active {
		return entities.RatingSymbol{}, domainerrors.ErrSymbolNotFound
	}
	return row, nil
}

func (s *Store) ListSymbolsByScale(_ context.Context, scaleID string) ([]entities.RatingSymbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.RatingSymbol, 0, len(s.symbols))
	for _, row := range s.symbols {
		if strings.TrimSpace(scaleID) != "" && row.ScaleID != strings.TrimSpace(scaleID) {
			continue
		}
		if !row.Active {
			continue
		}
		items = append(items, row)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Weightage == items[j].Weightage {
			return items[i].Symbol < items[j].Symbol
		}
		return items[i].Weightage > items[j].Weightage
	})
	return items, nil
}

var _ ports.SymbolRepository = (*Store)(nil)
