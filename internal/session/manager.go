package session

// Manager is the single entry point adapters use for both pooled
// resources, constructed once at startup and shared across every crawl.
type Manager struct {
	HTTP    *HTTPPool
	Browser *BrowserPool
}

// NewManager builds a Manager from the given pool configs.
func NewManager(httpCfg HTTPPoolConfig, browserCfg BrowserPoolConfig) *Manager {
	return &Manager{
		HTTP:    NewHTTPPool(httpCfg),
		Browser: NewBrowserPool(browserCfg),
	}
}

// Close releases the HTTP pool's idle connections. Leased browser handles
// must already have been released by their callers; Manager does not
// force-close in-flight browser contexts.
func (m *Manager) Close() {
	m.HTTP.Close()
}
