package output

import (
	"sort"

	"github.com/PentesterFlow/routescan/internal/parser"
	"github.com/PentesterFlow/routescan/internal/store"
)

// Summary groups a catalog's endpoints.
type Summary struct {
	Total        int             `json:"total" yaml:"total"`
	UniqueRoutes int             `json:"unique_routes" yaml:"unique_routes"`
	ByMethod     map[string]int  `json:"by_method" yaml:"by_method"`
	ByKind       map[string]int  `json:"by_kind" yaml:"by_kind"`
	ByResource   map[string]int  `json:"by_resource" yaml:"by_resource"`
	TopResources []ResourceCount `json:"top_resources" yaml:"top_resources"`
	EmptyPaths   int             `json:"empty_paths" yaml:"empty_paths"`
}

// ResourceCount represents a resource and its endpoint count.
type ResourceCount struct {
	Resource string `json:"resource" yaml:"resource"`
	Count    int    `json:"count" yaml:"count"`
}

// maxTopResources bounds Summary.TopResources.
const maxTopResources = 10

// Summarize computes a summary of endpoints. Routes are considered the same
// when their method and normalized path match.
func Summarize(endpoints []parser.Endpoint) Summary {
	s := Summary{
		Total:      len(endpoints),
		ByMethod:   make(map[string]int),
		ByKind:     make(map[string]int),
		ByResource: make(map[string]int),
	}

	dedup := store.NewDeduplicator(len(endpoints))
	for _, ep := range endpoints {
		s.ByMethod[string(ep.Method)]++
		s.ByKind[string(ep.Kind)]++
		s.ByResource[ep.ResourceName]++
		dedup.Add(store.RouteKey(string(ep.Method), ep.Path))
		if ep.Path == "" {
			s.EmptyPaths++
		}
	}
	s.UniqueRoutes = dedup.Count()

	for name, n := range s.ByResource {
		s.TopResources = append(s.TopResources, ResourceCount{Resource: name, Count: n})
	}
	sort.Slice(s.TopResources, func(i, j int) bool {
		a, b := s.TopResources[i], s.TopResources[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Resource < b.Resource
	})
	if len(s.TopResources) > maxTopResources {
		s.TopResources = s.TopResources[:maxTopResources]
	}
	return s
}
