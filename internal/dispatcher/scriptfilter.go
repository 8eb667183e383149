package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	expirable "github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	scriptTimeout  = 2000 * time.Millisecond
	scriptCacheCap = 100
)

// scriptCache is the process-global LRU+TTL cache of script-filter results,
// guarded implicitly by expirable.LRU's own locking. Lazily initialised on
// first use, mirroring the "process-global reader/writer lock around a
// LazyInit LRU" the script-filter cache is specified to be.
var (
	scriptCacheOnce sync.Once
	scriptCache     *expirable.LRU[uint64, []ActionResult]
)

func getScriptCache() *expirable.LRU[uint64, []ActionResult] {
	scriptCacheOnce.Do(func() {
		scriptCache = expirable.NewLRU[uint64, []ActionResult](scriptCacheCap, nil, scriptTimeout)
	})
	return scriptCache
}

func scriptCacheKey(scriptPath, query string) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(scriptPath)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(query)
	return h.Sum64()
}

// scriptManifest is the subset of <extension_dir>/manifest.json this
// package consumes: arbitrary JSON, of which only env is read.
type scriptManifest struct {
	Env map[string]string `json:"env"`
}

// scriptItem is one element of a script filter's stdout JSON protocol.
type scriptItem struct {
	Title        string      `json:"title"`
	Subtitle     string      `json:"subtitle,omitempty"`
	Arg          *string     `json:"arg,omitempty"`
	Icon         *scriptIcon `json:"icon,omitempty"`
	Valid        *bool       `json:"valid,omitempty"`
	Autocomplete string      `json:"autocomplete,omitempty"`
	Quicklook    string      `json:"quicklook,omitempty"`
	UID          string      `json:"uid,omitempty"`
}

type scriptIcon struct {
	Path string `json:"path"`
	Type string `json:"type,omitempty"`
}

// scriptOutput is the top-level stdout JSON object.
type scriptOutput struct {
	Items     []scriptItem `json:"items"`
	Variables any          `json:"variables,omitempty"`
	Rerun     *float64     `json:"rerun,omitempty"`
}

// executeScriptFilter resolves and runs scriptPath with a single argument
// (query), subject to a 2000ms wall-clock timeout and an LRU+TTL result
// cache keyed by (scriptPath, query). See spec §4.4.1.
func executeScriptFilter(scriptPath, extensionDir, query, actionID string) ([]ActionResult, error) {
	resolved, err := resolveScriptPath(scriptPath, extensionDir)
	if err != nil {
		return nil, err
	}

	key := scriptCacheKey(resolved, query)
	cache := getScriptCache()
	if cached, ok := cache.Get(key); ok {
		return cached, nil
	}

	results, err := runScript(resolved, extensionDir, query, actionID)
	if err != nil {
		// Errors are not cached, per spec.
		return nil, err
	}

	cache.Add(key, results)
	return results, nil
}

func resolveScriptPath(scriptPath, extensionDir string) (string, error) {
	resolved := scriptPath
	if !filepath.IsAbs(scriptPath) {
		resolved = filepath.Join(extensionDir, scriptPath)
	}
	if _, err := os.Stat(resolved); err != nil {
		return "", fmt.Errorf("script not found: %s", resolved)
	}
	return resolved, nil
}

func runScript(resolved, extensionDir, query, actionID string) ([]ActionResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), scriptTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, resolved, query)
	cmd.Dir = extensionDir
	cmd.Env = append(os.Environ(), manifestEnv(extensionDir)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("Script timed out after %dms", scriptTimeout.Milliseconds())
	}
	if runErr != nil {
		return nil, fmt.Errorf("Script failed: %s", strings.TrimSpace(stderr.String()))
	}

	var out scriptOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		excerpt := stdout.String()
		if len(excerpt) > 200 {
			excerpt = excerpt[:200]
		}
		return nil, fmt.Errorf("script output parse failed: %s (stdout: %q)", err, excerpt)
	}

	return buildResults(out.Items, extensionDir, actionID), nil
}

// manifestEnv loads <extension_dir>/manifest.json, if present, and returns
// its env map as "KEY=VALUE" entries. A missing or invalid manifest yields
// no extra entries — the manifest is optional.
func manifestEnv(extensionDir string) []string {
	data, err := os.ReadFile(filepath.Join(extensionDir, "manifest.json"))
	if err != nil {
		return nil
	}
	var m scriptManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	out := make([]string, 0, len(m.Env))
	for k, v := range m.Env {
		out = append(out, k+"="+v)
	}
	return out
}

func buildResults(items []scriptItem, extensionDir, actionID string) []ActionResult {
	results := make([]ActionResult, 0, len(items))
	for i, it := range items {
		if it.Valid != nil && !*it.Valid {
			continue
		}

		id := it.UID
		if id == "" {
			id = fmt.Sprintf("%s-%d", actionID, i)
		}

		var action ResultAction
		if it.Arg == nil {
			action = ResultAction{Kind: ResultCopyText, Text: it.Title}
		} else {
			action = classifyArg(*it.Arg)
		}

		var iconPath string
		if it.Icon != nil && it.Icon.Path != "" {
			candidate := it.Icon.Path
			if !filepath.IsAbs(candidate) {
				candidate = filepath.Join(extensionDir, candidate)
			}
			if _, err := os.Stat(candidate); err == nil {
				iconPath = candidate
			}
		}

		results = append(results, ActionResult{
			ID:        id,
			Title:     it.Title,
			Subtitle:  it.Subtitle,
			IconPath:  iconPath,
			Score:     ScoreScriptFilter,
			Action:    action,
			Quicklook: it.Quicklook,
		})
	}
	return results
}

// classifyArg maps a ScriptItem's arg string to a concrete ResultAction
// per the mapping rules in spec §4.4.1.
func classifyArg(arg string) ResultAction {
	switch {
	case strings.HasPrefix(arg, "http://"), strings.HasPrefix(arg, "https://"), strings.Contains(arg, "://"):
		return ResultAction{Kind: ResultOpenUrl, URL: arg}
	case strings.HasPrefix(arg, "cmd:"):
		return ResultAction{Kind: ResultRunCommand, Cmd: "/bin/sh", Args: []string{"-c", strings.TrimPrefix(arg, "cmd:")}}
	case strings.HasPrefix(arg, "/"), strings.HasPrefix(arg, "~/"):
		return ResultAction{Kind: ResultOpenUrl, URL: "file://" + arg}
	default:
		return ResultAction{Kind: ResultOpenUrl, URL: arg}
	}
}
