package story

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"storysync/internal/security"

	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"
)

// ErrStoryNotFound is returned when no document matches a story id.
var ErrStoryNotFound = errors.New("story not found")

// Document is a loaded story file together with its parsed tasks.
type Document struct {
	StoryID string
	Path    string
	Raw     string
	Tasks   []Task
	ModTime time.Time
	size    int64
}

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	// Dirs are searched in order, relative to the workspace root.
	Dirs []string
	// CoreConfig is an optional BMAD core-config.yaml whose
	// devStoryLocation is searched after Dirs.
	CoreConfig string
	Parser     *Parser
	CacheSize  int
}

// Loader resolves story ids to documents inside a workspace and caches the
// parse result per path until the file's mtime or size changes. Long-lived
// commands keep one Loader so repeated reads of an unchanged story skip the
// parse.
type Loader struct {
	ws     *security.Workspace
	dirs   []string
	parser *Parser
	cache  *lru.Cache[string, Document]
}

type coreConfig struct {
	DevStoryLocation string `yaml:"devStoryLocation"`
}

// NewLoader builds a loader rooted at ws.
func NewLoader(ws *security.Workspace, opts LoaderOptions) (*Loader, error) {
	if ws == nil {
		return nil, errors.New("story loader: workspace is nil")
	}
	size := opts.CacheSize
	if size <= 0 {
		size = 32
	}
	cache, err := lru.New[string, Document](size)
	if err != nil {
		return nil, fmt.Errorf("story loader cache: %w", err)
	}
	parser := opts.Parser
	if parser == nil {
		parser = defaultParser
	}

	dirs := append([]string(nil), opts.Dirs...)
	if loc := readDevStoryLocation(ws, opts.CoreConfig); loc != "" {
		dirs = append(dirs, loc)
	}
	return &Loader{ws: ws, dirs: dedupe(dirs), parser: parser, cache: cache}, nil
}

// Root returns the workspace root the loader is bound to.
func (l *Loader) Root() string {
	return l.ws.Root()
}

// Dirs returns the directories searched for story documents.
func (l *Loader) Dirs() []string {
	return append([]string(nil), l.dirs...)
}

// Find returns the path of the document for storyID.
func (l *Loader) Find(storyID string) (string, error) {
	id, ok := NormalizeStoryID(storyID)
	if !ok {
		return "", fmt.Errorf("invalid story id %q", storyID)
	}
	for _, dir := range l.dirs {
		resolved, err := l.ws.Resolve(dir)
		if err != nil {
			continue
		}
		entries, err := os.ReadDir(resolved)
		if err != nil {
			continue
		}
		var matches []string
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".md") {
				continue
			}
			if got, ok := NormalizeStoryID(e.Name()); ok && got == id {
				matches = append(matches, filepath.Join(resolved, e.Name()))
			}
		}
		if len(matches) > 0 {
			sort.Strings(matches)
			return matches[0], nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrStoryNotFound, id)
}

// Load finds and parses the document for storyID.
func (l *Loader) Load(storyID string) (Document, error) {
	path, err := l.Find(storyID)
	if err != nil {
		return Document{}, err
	}
	id, _ := NormalizeStoryID(storyID)
	return l.LoadPath(path, id)
}

// LoadPath parses the document at path as story storyID. The path must be
// inside the workspace.
func (l *Loader) LoadPath(path, storyID string) (Document, error) {
	resolved, err := l.ws.Resolve(path)
	if err != nil {
		return Document{}, fmt.Errorf("resolve story path %q: %w", path, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return Document{}, fmt.Errorf("stat story: %w", err)
	}
	if doc, ok := l.cache.Get(resolved); ok && doc.StoryID == storyID &&
		doc.ModTime.Equal(info.ModTime()) && doc.size == info.Size() {
		return doc, nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return Document{}, fmt.Errorf("read story: %w", err)
	}
	raw := string(data)
	doc := Document{
		StoryID: storyID,
		Path:    resolved,
		Raw:     raw,
		Tasks:   l.parser.Parse(raw, storyID),
		ModTime: info.ModTime(),
		size:    info.Size(),
	}
	l.cache.Add(resolved, doc)
	return doc, nil
}

func readDevStoryLocation(ws *security.Workspace, path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	_, data, err := ws.ReadFile(path)
	if err != nil {
		return ""
	}
	var cfg coreConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ""
	}
	return strings.TrimSpace(cfg.DevStoryLocation)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		s = filepath.Clean(s)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
