package registry

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"
)

// DefaultURL is the public npm registry.
const DefaultURL = "https://registry.npmjs.org"

// searchPageSize is the maximum page size the npm search endpoint accepts.
const searchPageSize = 250

// SearchQualifier selects which identity field a search query matches on.
type SearchQualifier string

const (
	ByAuthor     SearchQualifier = "author"
	ByMaintainer SearchQualifier = "maintainer"
	ByPublisher  SearchQualifier = "publisher"
)

// PackageDescriptor is one search result: the package name plus the version
// and publish date the registry reported as latest.
type PackageDescriptor struct {
	Name    string
	Version string
	Date    time.Time
}

// Times holds the creation and last-modification timestamps of a package,
// taken from the time map of its registry document.
type Times struct {
	Created  time.Time
	Modified time.Time
}

// Registry queries an npm-compatible registry.
type Registry struct {
	baseURL string
	client  *Client
}

// New creates a Registry rooted at baseURL.
func New(baseURL string, client *Client) *Registry {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Registry{baseURL: baseURL, client: client}
}

type searchResponse struct {
	Objects []struct {
		Package struct {
			Name    string `json:"name"`
			Version string `json:"version"`
			Date    string `json:"date"`
		} `json:"package"`
	} `json:"objects"`
	Total int `json:"total"`
}

// Search returns every package matching the qualifier:identity query,
// following the from/size pagination of the search endpoint until the
// reported total is exhausted.
func (r *Registry) Search(ctx context.Context, qualifier SearchQualifier, identity string) ([]PackageDescriptor, error) {
	text := url.QueryEscape(fmt.Sprintf("%s:%s", qualifier, identity))

	var results []PackageDescriptor
	for from := 0; ; {
		searchURL := fmt.Sprintf("%s/-/v1/search?text=%s&size=%d&from=%d",
			r.baseURL, text, searchPageSize, from)

		var page searchResponse
		if err := r.client.GetJSON(ctx, searchURL, &page); err != nil {
			return nil, fmt.Errorf("searching %s:%s: %w", qualifier, identity, err)
		}

		for _, obj := range page.Objects {
			d := PackageDescriptor{
				Name:    obj.Package.Name,
				Version: obj.Package.Version,
			}
			if obj.Package.Date != "" {
				date, err := time.Parse(time.RFC3339, obj.Package.Date)
				if err != nil {
					return nil, fmt.Errorf("parsing date for %s: %w", obj.Package.Name, err)
				}
				d.Date = date
			}
			results = append(results, d)
		}

		from += len(page.Objects)
		if len(page.Objects) == 0 || from >= page.Total {
			break
		}
	}

	return results, nil
}

type packageResponse struct {
	Name string            `json:"name"`
	Time map[string]string `json:"time"`
}

// PackageTimes fetches the registry document for a package and extracts its
// creation and modification timestamps.
func (r *Registry) PackageTimes(ctx context.Context, name string) (Times, error) {
	docURL := fmt.Sprintf("%s/%s", r.baseURL, url.PathEscape(name))

	var doc packageResponse
	if err := r.client.GetJSON(ctx, docURL, &doc); err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.IsNotFound() {
			return Times{}, &NotFoundError{Name: name}
		}
		return Times{}, fmt.Errorf("fetching package %s: %w", name, err)
	}

	var times Times
	if raw, ok := doc.Time["created"]; ok {
		created, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Times{}, fmt.Errorf("parsing created time for %s: %w", name, err)
		}
		times.Created = created
	}
	if raw, ok := doc.Time["modified"]; ok {
		modified, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Times{}, fmt.Errorf("parsing modified time for %s: %w", name, err)
		}
		times.Modified = modified
	}

	if times.Created.IsZero() {
		return Times{}, fmt.Errorf("package %s has no created time", name)
	}

	return times, nil
}
