package story

import "storysync/internal/todo"

// Project converts parsed tasks into todo items, preserving order. Checked
// tasks become completed items, everything else starts pending.
func Project(tasks []Task) []todo.Item {
	items := make([]todo.Item, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, ProjectTask(t))
	}
	return items
}

// ProjectTask converts a single task.
func ProjectTask(t Task) todo.Item {
	status := todo.StatusPending
	if t.Checked {
		status = todo.StatusCompleted
	}
	return todo.Item{
		ID:       EncodeID(t.StoryID, t.Section, t.LineNumber),
		Content:  EncodePrefix(t.StoryID, t.Section, t.SectionIndex) + " " + t.Content,
		Status:   status,
		Priority: t.Priority,
	}
}
