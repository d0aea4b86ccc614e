package folioapi

import (
	"fmt"
	"strings"
)

// Kind names one of the portfolio resource types.
type Kind string

const (
	KindSkills     Kind = "skills"
	KindEducation  Kind = "education"
	KindWork       Kind = "work"
	KindProjects   Kind = "projects"
	KindCommunity  Kind = "community"
	KindEPortfolio Kind = "e-portfolio"
)

// Kinds returns every resource kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindSkills, KindEducation, KindWork, KindProjects, KindCommunity, KindEPortfolio}
}

// ParseKind accepts a kind name case-insensitively. The e-portfolio kind
// may also be written e_portfolio or eportfolio.
func ParseKind(s string) (Kind, error) {
	switch k := strings.ToLower(strings.TrimSpace(s)); k {
	case "e_portfolio", "eportfolio":
		return KindEPortfolio, nil
	default:
		for _, known := range Kinds() {
			if Kind(k) == known {
				return known, nil
			}
		}
	}
	return "", fmt.Errorf("unknown resource %q", s)
}

// Endpoint locates a resource: BaseURL + Path is its collection URL.
type Endpoint struct {
	BaseURL string
	Path    string
}

// Topology maps every resource kind to an endpoint.
type Topology struct {
	Name      string
	endpoints map[Kind]Endpoint
	aggregate *Endpoint
}

// Topology names as accepted by configuration.
const (
	TopologyComposite  = "composite"
	TopologyPerService = "per-service"
)

// Composite routes every resource through a single gateway under /api.
// It also exposes the /api/portfolio aggregate.
func Composite(apiURL string) Topology {
	base := strings.TrimSuffix(apiURL, "/")
	t := Topology{
		Name:      TopologyComposite,
		endpoints: make(map[Kind]Endpoint, len(Kinds())),
		aggregate: &Endpoint{BaseURL: base, Path: "/api/portfolio"},
	}
	for _, k := range Kinds() {
		t.endpoints[k] = Endpoint{BaseURL: base, Path: "/api/" + string(k)}
	}
	return t
}

// ServiceURLs holds one base URL per resource service.
type ServiceURLs struct {
	Skills     string
	Education  string
	Work       string
	Projects   string
	Community  string
	EPortfolio string
}

// PerService routes each resource to its own service at the service root.
func PerService(urls ServiceURLs) Topology {
	endpoint := func(base, path string) Endpoint {
		return Endpoint{BaseURL: strings.TrimSuffix(base, "/"), Path: path}
	}
	return Topology{
		Name: TopologyPerService,
		endpoints: map[Kind]Endpoint{
			KindSkills:     endpoint(urls.Skills, "/skills"),
			KindEducation:  endpoint(urls.Education, "/education"),
			KindWork:       endpoint(urls.Work, "/work"),
			KindProjects:   endpoint(urls.Projects, "/projects"),
			KindCommunity:  endpoint(urls.Community, "/community"),
			KindEPortfolio: endpoint(urls.EPortfolio, "/e_portfolio"),
		},
	}
}

// Endpoint returns where k lives.
func (t Topology) Endpoint(k Kind) (Endpoint, bool) {
	e, ok := t.endpoints[k]
	return e, ok
}

// Aggregate returns the portfolio aggregate endpoint, if the topology has one.
func (t Topology) Aggregate() (Endpoint, bool) {
	if t.aggregate == nil {
		return Endpoint{}, false
	}
	return *t.aggregate, true
}
