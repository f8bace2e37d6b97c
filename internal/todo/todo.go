// Package todo defines the assistant-facing todo list item and the
// validation applied to loosely-typed todo payloads.
package todo

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status 待办状态 / Status of a todo item
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Priority 待办优先级 / Priority of a todo item
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Item 待办条目
// Item is a single entry of the assistant's todo list.
type Item struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Status   Status   `json:"status"`
	Priority Priority `json:"priority"`
}

// Done reports whether the item is finished, either completed or cancelled.
func (i Item) Done() bool {
	return i.Status == StatusCompleted || i.Status == StatusCancelled
}

// ParseStatus normalizes a raw status string.
func ParseStatus(raw string) (Status, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	switch Status(s) {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(s), true
	case "done":
		return StatusCompleted, true
	case "canceled":
		return StatusCancelled, true
	}
	return "", false
}

// ParsePriority normalizes a raw priority string.
func ParsePriority(raw string) (Priority, bool) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(raw))); p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, true
	}
	return "", false
}

// Normalize 归一化字段，未知状态回退到 pending，未知优先级回退到 medium
// Normalize trims fields; unknown status falls back to pending and unknown
// priority to medium.
func Normalize(item Item) Item {
	item.ID = strings.TrimSpace(item.ID)
	item.Content = strings.TrimSpace(item.Content)
	if s, ok := ParseStatus(string(item.Status)); ok {
		item.Status = s
	} else {
		item.Status = StatusPending
	}
	if p, ok := ParsePriority(string(item.Priority)); ok {
		item.Priority = p
	} else {
		item.Priority = PriorityMedium
	}
	return item
}

// Invalid describes one rejected entry of a todo payload.
type Invalid struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ParseResult is the outcome of validating a todo payload. Items holds the
// accepted entries in their original order; Invalid lists the rejects.
type ParseResult struct {
	Items   []Item
	Invalid []Invalid
}

// OK reports whether every entry was accepted.
func (r ParseResult) OK() bool {
	return len(r.Invalid) == 0
}

type rawItem struct {
	ID       json.RawMessage `json:"id"`
	Content  *string         `json:"content"`
	Status   *string         `json:"status"`
	Priority *string         `json:"priority"`
}

// ParseList validates a JSON array of todo objects. Malformed entries are
// reported in ParseResult.Invalid instead of failing the whole payload; an
// error is only returned when data is not a JSON array at all.
func ParseList(data []byte) (ParseResult, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return ParseResult{}, fmt.Errorf("todo list is not a JSON array: %w", err)
	}
	var res ParseResult
	for i, raw := range raws {
		item, reason := parseItem(raw)
		if reason != "" {
			res.Invalid = append(res.Invalid, Invalid{Index: i, Reason: reason})
			continue
		}
		res.Items = append(res.Items, item)
	}
	return res, nil
}

func parseItem(raw json.RawMessage) (Item, string) {
	var r rawItem
	if err := json.Unmarshal(raw, &r); err != nil {
		return Item{}, "not an object"
	}
	if r.Content == nil || strings.TrimSpace(*r.Content) == "" {
		return Item{}, "missing content"
	}
	item := Item{Content: strings.TrimSpace(*r.Content)}

	// ids arrive as strings or numbers depending on the host
	if len(r.ID) > 0 && string(r.ID) != "null" {
		var s string
		if err := json.Unmarshal(r.ID, &s); err == nil {
			item.ID = strings.TrimSpace(s)
		} else {
			var n json.Number
			if err := json.Unmarshal(r.ID, &n); err != nil {
				return Item{}, "id is neither string nor number"
			}
			item.ID = n.String()
		}
	}

	if r.Status == nil {
		item.Status = StatusPending
	} else {
		s, ok := ParseStatus(*r.Status)
		if !ok {
			return Item{}, fmt.Sprintf("unknown status %q", *r.Status)
		}
		item.Status = s
	}

	if r.Priority == nil || strings.TrimSpace(*r.Priority) == "" {
		item.Priority = PriorityMedium
	} else {
		p, ok := ParsePriority(*r.Priority)
		if !ok {
			return Item{}, fmt.Sprintf("unknown priority %q", *r.Priority)
		}
		item.Priority = p
	}
	return item, ""
}

// CountInProgress returns how many items are currently in progress.
func CountInProgress(items []Item) int {
	n := 0
	for _, item := range items {
		if item.Status == StatusInProgress {
			n++
		}
	}
	return n
}

// Clone returns a copy of items that shares no backing array with the input.
func Clone(items []Item) []Item {
	if items == nil {
		return nil
	}
	return append([]Item(nil), items...)
}
