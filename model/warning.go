package model

import "fmt"

// Warning is a non-fatal problem found while building a report. Item is the
// zero-based item index, or -1 when the warning is not tied to an item.
type Warning struct {
	Item    int
	Field   string
	Message string
}

func (w Warning) String() string {
	if w.Item < 0 {
		return w.Message
	}
	if w.Field == "" {
		return fmt.Sprintf("item %d: %s", w.Item, w.Message)
	}
	return fmt.Sprintf("item %d %s: %s", w.Item, w.Field, w.Message)
}
