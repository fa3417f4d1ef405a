package lifecycle

import "strconv"

// OperationSequence hands out the operation IDs attached to order mutations.
// IDs are decimal strings, strictly increasing across every mutation type.
// A sequence has a single owner and is not safe for concurrent use.
type OperationSequence struct {
	next int64
}

// NewOperationSequence starts a sequence whose first ID is start.
func NewOperationSequence(start int64) *OperationSequence {
	return &OperationSequence{next: start}
}

// Next returns the current value and advances the sequence.
func (s *OperationSequence) Next() string {
	id := strconv.FormatInt(s.next, 10)
	s.next++
	return id
}

// Peek returns the value the next call to Next will hand out.
func (s *OperationSequence) Peek() int64 {
	return s.next
}
