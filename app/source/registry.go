package source

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// CalendarConfig declares one configured event/feed source. Kind selects the
// adapter: "ics" reads the URL as an iCalendar feed, "page" discovers an .ics
// export link on an HTML page first, "rss" reads an RSS/Atom feed.
type CalendarConfig struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	URL    string `yaml:"url"`
	Region string `yaml:"region"`
}

type calendarsFile struct {
	Sources []CalendarConfig `yaml:"sources"`
}

// Registry resolves source identifiers to adapters. The marketplace adapters
// (tori, ebay) are always registered; calendar and feed sources come from the
// calendars file.
type Registry struct {
	adapters map[string]Adapter
	mu       sync.RWMutex
}

func NewRegistry(httpClient *http.Client, userAgent string) *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	r.Register(NewToriAdapter(httpClient, userAgent))
	r.Register(NewEbayAdapter(httpClient, userAgent))
	return r
}

func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
}

func (r *Registry) Get(name string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	return a, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadCalendars registers adapters declared in a YAML file. A missing file is
// not an error when the path is empty.
func (r *Registry) LoadCalendars(path string, httpClient *http.Client, userAgent string) (int, error) {
	if path == "" {
		return 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read calendars file: %w", err)
	}

	var file calendarsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to parse calendars file: %w", err)
	}

	for i, c := range file.Sources {
		if c.Name == "" || c.URL == "" {
			return 0, fmt.Errorf("calendar source at index %d: name and url are required", i)
		}

		var adapter Adapter
		switch c.Kind {
		case "ics", "":
			adapter = NewICSAdapter(c.Name, c.URL, c.Region, httpClient, userAgent)
		case "page":
			adapter = NewICSPageAdapter(c.Name, c.URL, c.Region, httpClient, userAgent)
		case "rss":
			adapter = NewRSSAdapter(c.Name, c.URL, httpClient, userAgent)
		default:
			return 0, fmt.Errorf("calendar source %q: unknown kind %q", c.Name, c.Kind)
		}

		r.Register(adapter)
	}

	return len(file.Sources), nil
}
