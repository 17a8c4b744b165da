package integration

import (
	"context"
	"fmt"
	"sync"
)

// MemorySheetStore keeps sheet rows in process. It satisfies the
// structured-data contract for the sheet nodes; a real spreadsheet
// binding plugs in behind the same interface.
type MemorySheetStore struct {
	mu     sync.Mutex
	sheets map[string][]map[string]any
}

var _ SheetStore = new(MemorySheetStore)

func NewMemorySheetStore() *MemorySheetStore {
	return &MemorySheetStore{
		sheets: make(map[string][]map[string]any),
	}
}

func (s *MemorySheetStore) ReadRows(ctx context.Context, sheet string, filter RowFilter) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []map[string]any
	for _, row := range s.sheets[sheet] {
		if matches(row, filter) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *MemorySheetStore) UpdateRows(ctx context.Context, sheet string, filter RowFilter, updates map[string]any) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, row := range s.sheets[sheet] {
		if matches(row, filter) {
			for k, v := range updates {
				row[k] = v
			}
			count++
		}
	}
	return count, nil
}

func (s *MemorySheetStore) AppendRow(ctx context.Context, sheet string, row map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[sheet] = append(s.sheets[sheet], row)
	return nil
}

func matches(row map[string]any, filter RowFilter) bool {
	for k, v := range filter {
		if fmt.Sprintf("%v", row[k]) != fmt.Sprintf("%v", v) {
			return false
		}
	}
	return true
}
