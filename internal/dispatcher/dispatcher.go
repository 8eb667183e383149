package dispatcher

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/coregx/ahocorasick"
	"github.com/hashicorp/go-hclog"

	"github.com/quillbar/launchcore/internal/keyword"
	"github.com/quillbar/launchcore/internal/storage"
)

// Dispatcher owns a persisted Action collection and a keyword automaton
// cache built from the enabled QuickLink and ScriptFilter keywords.
type Dispatcher struct {
	store     *storage.Store[Action]
	automaton *keyword.Cache
	extDir    string
	log       hclog.Logger
}

// Open loads the action store at path and returns a ready Dispatcher.
// extensionDir is the default directory relative script paths resolve
// against when an Action does not carry its own ExtensionDir.
func Open(path, extensionDir string, log hclog.Logger) (*Dispatcher, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	s, err := storage.New[Action](path, storage.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("dispatcher: open action store: %w", err)
	}
	return &Dispatcher{store: s, automaton: keyword.New(), extDir: extensionDir, log: log}, nil
}

// GetAll returns every persisted action, enabled or not.
func (d *Dispatcher) GetAll() []Action { return d.store.GetAll() }

// Add appends a new action and invalidates the keyword automaton.
func (d *Dispatcher) Add(a Action) error {
	if err := d.store.Add(a); err != nil {
		return err
	}
	d.automaton.Invalidate()
	return nil
}

// Update replaces the action with a matching ID and invalidates the
// keyword automaton. Reports whether an action was found.
func (d *Dispatcher) Update(updated Action) bool {
	changed := d.store.Update(func(items []Action) ([]Action, bool) {
		for i, a := range items {
			if a.ID == updated.ID {
				items[i] = updated
				return items, true
			}
		}
		return items, false
	})
	if changed {
		d.automaton.Invalidate()
	}
	return changed
}

// Remove deletes the action with the given ID and invalidates the keyword
// automaton. Reports whether an action was found.
func (d *Dispatcher) Remove(id string) bool {
	changed := d.store.Update(func(items []Action) ([]Action, bool) {
		for i, a := range items {
			if a.ID == id {
				return append(items[:i], items[i+1:]...), true
			}
		}
		return items, false
	})
	if changed {
		d.automaton.Invalidate()
	}
	return changed
}

// Toggle flips the Enabled flag of the action with the given ID and
// invalidates the keyword automaton. Reports whether an action was found.
func (d *Dispatcher) Toggle(id string) bool {
	changed := d.store.Update(func(items []Action) ([]Action, bool) {
		for i, a := range items {
			if a.ID == id {
				items[i].Enabled = !items[i].Enabled
				return items, true
			}
		}
		return items, false
	})
	if changed {
		d.automaton.Invalidate()
	}
	return changed
}

// ImportDefaults adds the six canonical QuickLinks, skipping any whose ID
// already exists.
func (d *Dispatcher) ImportDefaults() error {
	existing := make(map[string]bool)
	for _, a := range d.store.GetAll() {
		existing[a.ID] = true
	}
	for _, def := range DefaultQuickLinks() {
		if existing[def.ID] {
			continue
		}
		if err := d.Add(def); err != nil {
			return err
		}
	}
	return nil
}

// keywords returns the enabled QuickLink and ScriptFilter keywords — the
// only kinds that participate in the dispatcher automaton (never a
// Pattern's first token).
func (d *Dispatcher) keywords() []string {
	var out []string
	for _, a := range d.store.GetAll() {
		if !a.Enabled {
			continue
		}
		if a.Kind == KindQuickLink || a.Kind == KindScriptFilter {
			out = append(out, a.Keyword)
		}
	}
	return out
}

// Search tries every enabled action against query, in stored order, and
// returns the matches ordered by (score desc, id asc). enabled=false
// actions never participate.
func (d *Dispatcher) Search(query string) []ActionResult {
	// Rebuilding the automaton here keeps its invalidate/rebuild lifecycle
	// exercised even though per-action matching below is done directly via
	// keywordMatch; a future caller that needs a single fast "does anything
	// match at all" probe can use d.automaton.Match with the same builder.
	_ = d.automaton.WithAutomaton(d.keywords, func(_ *ahocorasick.Automaton) {})

	var results []ActionResult
	for _, a := range d.store.GetAll() {
		if !a.Enabled {
			continue
		}
		switch a.Kind {
		case KindQuickLink:
			if r, ok := d.matchQuickLink(a, query); ok {
				results = append(results, r)
			}
		case KindPattern:
			if r, ok := d.matchPatternAction(a, query); ok {
				results = append(results, r)
			}
		case KindScriptFilter:
			if rs, ok := d.matchScriptFilter(a, query); ok {
				results = append(results, rs...)
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	return results
}

func (d *Dispatcher) matchQuickLink(a Action, query string) (ActionResult, bool) {
	tail, ok := keywordMatch(query, a.Keyword)
	if !ok {
		return ActionResult{}, false
	}
	expanded := expandQuickLinkURL(a.URL, tail)
	title := a.Name
	if tail != "" {
		title = a.Name + ": " + tail
	}
	return ActionResult{
		ID:       a.ID,
		Title:    title,
		Subtitle: expanded,
		Icon:     a.Icon,
		Score:    ScoreQuickLink,
		Action:   ResultAction{Kind: ResultOpenUrl, URL: expanded},
	}, true
}

func (d *Dispatcher) matchPatternAction(a Action, query string) (ActionResult, bool) {
	captures, ok := matchPattern(a.Pattern, query)
	if !ok {
		return ActionResult{}, false
	}

	var ra ResultAction
	var subtitle string
	switch a.PAction.Kind {
	case PatternOpenUrl:
		url := expandTemplate(a.PAction.Template, captures)
		ra = ResultAction{Kind: ResultOpenUrl, URL: url}
		subtitle = url
	case PatternCopyText:
		text := expandTemplate(a.PAction.Template, captures)
		ra = ResultAction{Kind: ResultCopyText, Text: text}
		subtitle = "Copy: " + text
	case PatternRunCommand:
		args := make([]string, len(a.PAction.Args))
		for i, arg := range a.PAction.Args {
			args[i] = expandTemplate(arg, captures)
		}
		ra = ResultAction{Kind: ResultRunCommand, Cmd: a.PAction.Cmd, Args: args}
		subtitle = "Run: " + a.PAction.Cmd
		for _, arg := range args {
			subtitle += " " + arg
		}
	default:
		return ActionResult{}, false
	}

	return ActionResult{
		ID:       a.ID,
		Title:    a.Name,
		Subtitle: subtitle,
		Icon:     a.Icon,
		Score:    ScorePattern,
		Action:   ra,
	}, true
}

func (d *Dispatcher) matchScriptFilter(a Action, query string) ([]ActionResult, bool) {
	tail, ok := keywordMatch(query, a.Keyword)
	if !ok {
		return nil, false
	}

	extDir := a.ExtensionDir
	if extDir == "" {
		extDir = d.extDir
	}

	results, err := executeScriptFilter(a.ScriptPath, extDir, tail, a.ID)
	if err != nil {
		return []ActionResult{{
			ID:       a.ID + "-error",
			Title:    err.Error(),
			Icon:     "exclamationmark.triangle",
			Score:    ScoreScriptError,
			Action:   ResultAction{Kind: ResultCopyText, Text: err.Error()},
		}}, true
	}
	return results, true
}

// expandQuickLinkURL substitutes the literal token {query} in rawURL with
// the percent-encoded tail. url.QueryEscape encodes spaces as "+" (form
// encoding); swap in "%20" so the substitution is plain percent-encoding.
func expandQuickLinkURL(rawURL, tail string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(tail), "+", "%20")
	return expandTemplate(rawURL, map[string]string{"query": encoded})
}
