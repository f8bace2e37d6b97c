package i18n

// EnMessages English message catalog
var EnMessages = map[string]string{
	// Board - Panel titles
	"panel.todos": "Todos",
	"panel.story": "Story",
	"panel.log":   "Sync log",

	// Board sidebar
	"sidebar.story":    "Story",
	"sidebar.progress": "Progress",
	"sidebar.session":  "Session",
	"sidebar.none":     "none",
	"sidebar.done":     "%d / %d done",
	"sidebar.syncs":    "%d syncs",

	// Board - empty panels
	"empty.todos": "No todos yet",
	"empty.story": "No story loaded",
	"empty.log":   "No syncs yet",

	// Board - status bar
	"status.initializing": "Initializing...",
	"status.error":        "error: %s",
	"status.read_failed":  "read %s: %s",
}
