package folioapi

import (
	"context"
	"net/http"
	"net/url"
)

// Multipart field names used by the upload endpoints.
const (
	FieldFile  = "file"
	FieldFiles = "files"
	FieldLogo  = "logo"
)

// Resource is a CRUD module over one collection. It adds no validation or
// caching; errors from the Client are returned unchanged.
type Resource struct {
	client *Client
	path   string
}

// NewResource binds a collection path to client.
func NewResource(client *Client, path string) *Resource {
	return &Resource{client: client, path: path}
}

// Path returns the collection path.
func (r *Resource) Path() string { return r.path }

func (r *Resource) item(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

// List fetches the whole collection.
func (r *Resource) List(ctx context.Context) (Record, error) {
	return r.client.Get(ctx, r.path)
}

// Get fetches one record.
func (r *Resource) Get(ctx context.Context, id string) (Record, error) {
	return r.client.Get(ctx, r.item(id))
}

// Create posts a new record; the server assigns its id.
func (r *Resource) Create(ctx context.Context, payload any) (Record, error) {
	return r.client.Post(ctx, r.path, payload)
}

// Update replaces the fields of record id.
func (r *Resource) Update(ctx context.Context, id string, payload any) (Record, error) {
	return r.client.Put(ctx, r.item(id), payload)
}

// Delete removes record id.
func (r *Resource) Delete(ctx context.Context, id string) (Record, error) {
	return r.client.Delete(ctx, r.item(id))
}

// FileResource is a Resource whose records carry uploaded files.
type FileResource struct {
	*Resource
}

// UploadFile attaches a single file to record id.
func (r *FileResource) UploadFile(ctx context.Context, id string, file File) (Record, error) {
	return r.client.Upload(ctx, r.item(id)+"/upload", FieldFile, file)
}

// UploadFiles attaches several files to record id under one field.
func (r *FileResource) UploadFiles(ctx context.Context, id string, files ...File) (Record, error) {
	return r.client.Upload(ctx, r.item(id)+"/upload", FieldFiles, files...)
}

// ClearFile removes the file stored on record id.
func (r *FileResource) ClearFile(ctx context.Context, id string) (Record, error) {
	return r.client.ClearUpload(ctx, r.item(id)+"/upload")
}

// LogoResource is a FileResource whose records also carry a logo image.
type LogoResource struct {
	*FileResource
}

// UploadLogo replaces the logo of record id.
func (r *LogoResource) UploadLogo(ctx context.Context, id string, file File) (Record, error) {
	return r.client.Upload(ctx, r.item(id)+"/logo", FieldLogo, file)
}

// API groups the six resource modules for one topology.
type API struct {
	Skills     *Resource
	Education  *LogoResource
	Work       *LogoResource
	Projects   *Resource
	Community  *Resource
	EPortfolio *FileResource

	aggregate *Resource
}

// NewAPI builds the resource modules for t. Resources that share a base URL
// share a Client. httpClient may be nil.
func NewAPI(t Topology, tokens TokenSource, httpClient *http.Client) *API {
	clients := make(map[string]*Client)
	resource := func(e Endpoint) *Resource {
		c, ok := clients[e.BaseURL]
		if !ok {
			c = NewClient(e.BaseURL, tokens)
			if httpClient != nil {
				c.HTTPClient = httpClient
			}
			clients[e.BaseURL] = c
		}
		return NewResource(c, e.Path)
	}
	of := func(k Kind) *Resource {
		e, _ := t.Endpoint(k)
		return resource(e)
	}

	api := &API{
		Skills:     of(KindSkills),
		Education:  &LogoResource{&FileResource{of(KindEducation)}},
		Work:       &LogoResource{&FileResource{of(KindWork)}},
		Projects:   of(KindProjects),
		Community:  of(KindCommunity),
		EPortfolio: &FileResource{of(KindEPortfolio)},
	}
	if e, ok := t.Aggregate(); ok {
		api.aggregate = resource(e)
	}
	return api
}

// Resource returns the CRUD module for k, or nil for an unknown kind.
func (a *API) Resource(k Kind) *Resource {
	switch k {
	case KindSkills:
		return a.Skills
	case KindEducation:
		return a.Education.Resource
	case KindWork:
		return a.Work.Resource
	case KindProjects:
		return a.Projects
	case KindCommunity:
		return a.Community
	case KindEPortfolio:
		return a.EPortfolio.Resource
	}
	return nil
}

// Files returns the upload-capable module for k, if k supports uploads.
func (a *API) Files(k Kind) (*FileResource, bool) {
	switch k {
	case KindEducation:
		return a.Education.FileResource, true
	case KindWork:
		return a.Work.FileResource, true
	case KindEPortfolio:
		return a.EPortfolio, true
	}
	return nil, false
}

// Logos returns the logo-capable module for k, if k supports logos.
func (a *API) Logos(k Kind) (*LogoResource, bool) {
	switch k {
	case KindEducation:
		return a.Education, true
	case KindWork:
		return a.Work, true
	}
	return nil, false
}

// Portfolio fetches every collection in one call. Only the composite
// topology serves it.
func (a *API) Portfolio(ctx context.Context) (Record, error) {
	if a.aggregate == nil {
		return nil, ErrNoAggregate
	}
	return a.aggregate.List(ctx)
}
