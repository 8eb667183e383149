package dispatcher

// DefaultQuickLinks returns the six canonical QuickLinks imported by
// ImportDefaults when no action with a matching ID already exists.
func DefaultQuickLinks() []Action {
	return []Action{
		{
			ID: "quicklink-google", Name: "Google", Icon: "magnifyingglass",
			Enabled: true, Kind: KindQuickLink,
			Keyword: "g", URL: "https://www.google.com/search?q={query}",
		},
		{
			ID: "quicklink-duckduckgo", Name: "DuckDuckGo", Icon: "magnifyingglass",
			Enabled: true, Kind: KindQuickLink,
			Keyword: "ddg", URL: "https://duckduckgo.com/?q={query}",
		},
		{
			ID: "quicklink-github", Name: "GitHub", Icon: "chevron.left.forwardslash.chevron.right",
			Enabled: true, Kind: KindQuickLink,
			Keyword: "gh", URL: "https://github.com/search?q={query}",
		},
		{
			ID: "quicklink-stackoverflow", Name: "Stack Overflow", Icon: "questionmark.circle",
			Enabled: true, Kind: KindQuickLink,
			Keyword: "so", URL: "https://stackoverflow.com/search?q={query}",
		},
		{
			ID: "quicklink-wikipedia", Name: "Wikipedia", Icon: "book",
			Enabled: true, Kind: KindQuickLink,
			Keyword: "wiki", URL: "https://en.wikipedia.org/w/index.php?search={query}",
		},
		{
			ID: "quicklink-youtube", Name: "YouTube", Icon: "play.rectangle",
			Enabled: true, Kind: KindQuickLink,
			Keyword: "yt", URL: "https://www.youtube.com/results?search_query={query}",
		},
	}
}
