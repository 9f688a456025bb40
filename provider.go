package clipforge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/clipforge/clipforge/generic"
)

var (
	ErrDuplicateProvider = errors.New("duplicate provider name")
	ErrInvalidProvider   = errors.New("invalid provider")
	ErrNoMatch           = errors.New("no provider matched the input")
	ErrUnknownProvider   = errors.New("unknown provider")
)

var (
	PriorityHighest int16 = math.MinInt16
	PriorityDefault int16 = 0
	PriorityLowest  int16 = math.MaxInt16
)

// SourceInfo is the result of a metadata fetch: enough to preview an item without
// downloading it.
type SourceInfo struct {
	ID           string
	Title        string
	ThumbnailURL string
}

// ProgressFunc receives byte counts during a download. expected may be 0 if the provider
// cannot determine the total up front.
type ProgressFunc func(downloaded, expected int64)

// A Source is one video that a provider knows how to fetch. Both operations must be safe to
// call concurrently for different Sources; a Source carries no state shared with its siblings.
type Source interface {
	// URL returns the canonical URL for this source. The Provider.Match that created the
	// Source is assumed to match this canonical URL too.
	URL() string
	// Recon fetches metadata for the source without downloading any media, and never
	// expands a playlist. Failures wrap ErrExtraction.
	Recon(ctx context.Context) (*SourceInfo, error)
	// Download fetches the best available audio+video merged into a single mp4 at
	// destBase+".mp4", returning the final path. progress may be nil. Failures wrap
	// ErrDownload.
	Download(ctx context.Context, destBase string, progress ProgressFunc) (string, error)
}

type MatchFunc = func(string) (Source, error)

// A Provider matches any URL it knows how to handle, giving a Source for that video.
type Provider struct {
	Name  string
	Match MatchFunc
	// Priority of the matcher, lower (including negative) means matching earlier.
	Priority int16
}

func (p Provider) WithName(name string) Provider {
	p.Name = name
	return p
}

func (p Provider) WithPriority(priority int16) Provider {
	p.Priority = priority
	return p
}

// A Match is the result of a Provider successfully matching a URL.
type Match struct {
	ProviderName string
	Source       Source
}

// A ProviderRegistry is a collection of Provider instances which can be used to try to match URLs.
type ProviderRegistry struct {
	providers   []*Provider
	providerMap map[string]*Provider
}

// Add registers a Provider. Provider.Name and Provider.Match must be set, and Provider.Name
// must be unique within the registry.
func (r *ProviderRegistry) Add(p Provider) error {
	if r.providerMap == nil {
		r.providerMap = make(map[string]*Provider)
	}
	if p.Name == "" || p.Match == nil {
		return ErrInvalidProvider
	}
	if _, ok := r.providerMap[p.Name]; ok {
		return ErrDuplicateProvider
	}
	r.providerMap[p.Name] = &p
	r.providers = append(r.providers, r.providerMap[p.Name])
	r.sortByPriority()
	return nil
}

// Create is a shortcut for Add(Provider{Name: ..., Match: ...}).
func (r *ProviderRegistry) Create(name string, f MatchFunc) error {
	return r.Add(Provider{Name: name, Match: f})
}

// CreatePriority is a shortcut for Add(Provider{Name: ..., Match: ..., Priority: ...}).
func (r *ProviderRegistry) CreatePriority(name string, f MatchFunc, priority int16) error {
	return r.Add(Provider{Name: name, Match: f, Priority: priority})
}

// List returns the names of registered providers in priority order.
func (r *ProviderRegistry) List() []string {
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name)
	}
	return names
}

// Match a string against each Provider in priority order, or return every match failure
// wrapped together.
func (r *ProviderRegistry) Match(s string) (*Match, error) {
	var result error
	for _, p := range r.providers {
		if source, err := p.Match(s); source != nil && err == nil {
			return &Match{ProviderName: p.Name, Source: source}, nil
		} else {
			result = multierror.Append(result, multierror.Prefix(err, fmt.Sprintf("[%v]", p.Name)))
		}
	}
	if result == nil {
		result = ErrNoMatch
	}
	return nil, result
}

// MatchWith will attempt to match a string against a specific provider.
func (r *ProviderRegistry) MatchWith(name string, s string) (*Match, error) {
	p, ok := r.providerMap[name]
	if !ok {
		return nil, ErrUnknownProvider
	}
	if source, err := p.Match(s); source != nil && err == nil {
		return &Match{ProviderName: p.Name, Source: source}, nil
	}
	return nil, ErrNoMatch
}

// MustAdd wraps Add but panics if there is an error.
func (r *ProviderRegistry) MustAdd(p Provider) {
	generic.Unwrap_(r.Add(p))
}

// MustCreate wraps Create but panics if there is an error.
func (r *ProviderRegistry) MustCreate(name string, f MatchFunc) {
	generic.Unwrap_(r.Create(name, f))
}

// MustCreatePriority wraps CreatePriority but panics if there is an error.
func (r *ProviderRegistry) MustCreatePriority(name string, f MatchFunc, priority int16) {
	generic.Unwrap_(r.CreatePriority(name, f, priority))
}

func (r *ProviderRegistry) sortByPriority() {
	sort.SliceStable(r.providers, func(i, j int) bool {
		return r.providers[i].Priority < r.providers[j].Priority
	})
}

var DefaultProviderRegistry ProviderRegistry
