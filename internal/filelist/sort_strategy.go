package filelist

import (
	"sort"

	"github.com/maruel/natural"
)

// Sort method identifiers for config storage.
const (
	SortSimple     = 0 // lexicographic by path (default)
	SortNatural    = 1 // natural order (file1, file2, file10)
	SortEntryOrder = 2 // keep collection order
)

// SortStrategy orders the collected image paths.
type SortStrategy interface {
	// Sort returns a new sorted slice without modifying the original.
	Sort(images []ImagePath) []ImagePath
	// Name returns the human-readable name of the strategy.
	Name() string
	// ID returns the numeric identifier for config storage.
	ID() int
}

// SimpleSortStrategy implements lexicographic sorting.
type SimpleSortStrategy struct{}

func (s *SimpleSortStrategy) Sort(images []ImagePath) []ImagePath {
	result := make([]ImagePath, len(images))
	copy(result, images)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Path < result[j].Path
	})
	return result
}

func (s *SimpleSortStrategy) Name() string { return "Simple" }
func (s *SimpleSortStrategy) ID() int      { return SortSimple }

// NaturalSortStrategy sorts digit runs numerically.
type NaturalSortStrategy struct{}

func (s *NaturalSortStrategy) Sort(images []ImagePath) []ImagePath {
	result := make([]ImagePath, len(images))
	copy(result, images)
	sort.Slice(result, func(i, j int) bool {
		return natural.Less(result[i].Path, result[j].Path)
	})
	return result
}

func (s *NaturalSortStrategy) Name() string { return "Natural" }
func (s *NaturalSortStrategy) ID() int      { return SortNatural }

// EntryOrderSortStrategy preserves the collection order.
type EntryOrderSortStrategy struct{}

func (s *EntryOrderSortStrategy) Sort(images []ImagePath) []ImagePath {
	result := make([]ImagePath, len(images))
	copy(result, images)
	return result
}

func (s *EntryOrderSortStrategy) Name() string { return "Entry Order" }
func (s *EntryOrderSortStrategy) ID() int      { return SortEntryOrder }

// GetSortStrategy maps a sort method ID to its strategy, falling back to
// lexicographic order for unknown IDs.
func GetSortStrategy(sortMethod int) SortStrategy {
	switch sortMethod {
	case SortNatural:
		return &NaturalSortStrategy{}
	case SortEntryOrder:
		return &EntryOrderSortStrategy{}
	default:
		return &SimpleSortStrategy{}
	}
}
