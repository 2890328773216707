package content

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"finitefield.org/holding-web/internal/cms"
)

type fakeSource struct {
	mu      sync.Mutex
	bodies  map[cms.Resource]string
	errs    map[cms.Resource]error
	posts   map[string]string
	calls   map[string]int
	gate    chan struct{}
	hook    func()
	contact func(req cms.ContactRequest, lang string) (cms.ContactResponse, error)

	contactCalls int
	lastContact  cms.ContactRequest
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		bodies: map[cms.Resource]string{},
		errs:   map[cms.Resource]error{},
		posts:  map[string]string{},
		calls:  map[string]int{},
	}
}

func (f *fakeSource) Fetch(ctx context.Context, resource cms.Resource, lang string, _ url.Values) (cms.Envelope, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return cms.Envelope{}, ctx.Err()
		}
	}
	f.mu.Lock()
	f.calls[string(resource)+"|"+lang]++
	body, err := f.bodies[resource], f.errs[resource]
	f.mu.Unlock()
	if err != nil {
		return cms.Envelope{}, err
	}
	return cms.Normalize([]byte(body))
}

func (f *fakeSource) FetchOne(_ context.Context, resource cms.Resource, id, lang string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[string(resource)+"/"+id+"|"+lang]++
	body, ok := f.posts[id]
	if !ok {
		return nil, &cms.StatusError{Endpoint: string(resource), Code: 404}
	}
	return []byte(body), nil
}

func (f *fakeSource) SubmitContact(_ context.Context, req cms.ContactRequest, lang string) (cms.ContactResponse, error) {
	f.mu.Lock()
	f.contactCalls++
	f.lastContact = req
	fn := f.contact
	f.mu.Unlock()
	if fn == nil {
		return cms.ContactResponse{Key: "01TEST"}, nil
	}
	return fn(req, lang)
}

func (f *fakeSource) Search(_ context.Context, query, lang string) ([]cms.SearchHit, error) {
	f.mu.Lock()
	f.calls["search/"+query+"|"+lang]++
	f.mu.Unlock()
	if query == "" {
		return nil, errors.New("empty query")
	}
	return []cms.SearchHit{{Type: "blog", Title: query + " " + lang, URL: "/blog/x"}}, nil
}

func (f *fakeSource) SetReconnectHook(fn func()) { f.hook = fn }

func (f *fakeSource) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeSource) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type mapTranslator map[string]string

func (m mapTranslator) T(lang, key string) string {
	if v, ok := m[lang+":"+key]; ok {
		return v
	}
	return key
}

func seed(f *fakeSource) {
	f.bodies[cms.ResourceSettings] = `[{"key":"site_title","value":"Holding"},{"key":"phone","value":"+966"}]`
	f.bodies[cms.ResourceMenu] = `{"results":[
		{"label":"About","href":"#about","sort":2},
		{"title":"Home","url":"#home","sort":1},
		{"label":"Duplicate","href":"#about ","sort":3}
	]}`
	f.bodies[cms.ResourceHero] = `[{"title":"First hero"},{"title":"Second hero"}]`
	f.bodies[cms.ResourceAbout] = `{"data":[{"title":"About us"}]}`
	f.bodies[cms.ResourceStrategyBlocks] = `[{"title":"b","sort":2},{"title":"a","order":1}]`
	f.bodies[cms.ResourceCompanies] = `[{"name":"Gamma","sort":2},{"name":"Alpha","sort":1},{"name":"Beta","sort":1}]`
	f.bodies[cms.ResourceBoard] = `[{"name":"Chair","sort":0},{"name":"Member"}]`
	f.bodies[cms.ResourceSpeeches] = `[
		{"title":"old","created_at":"2023-01-01T00:00:00Z"},
		{"title":"new","date":"2024-05-01"}
	]`
	f.bodies[cms.ResourceGovernance] = `[{"title":"g2","sort":5},{"title":"g1","sort":4}]`
	f.bodies[cms.ResourceESG] = `[
		{"pillar":"social","title":"s1","sort":1},
		{"pillar":"environment","title":"e2","sort":2},
		{"pillar":"environment","title":"e1","sort":1}
	]`
	f.bodies[cms.ResourceNews] = `[
		{"title":"undated"},
		{"title":"older","date_published":"2024-01-10"},
		{"title":"newer","date_published":"2024-03-01"}
	]`
	f.bodies[cms.ResourcePosts] = `{"results":[
		{"slug":"b","title":"B","date_published":"2023-06-01"},
		{"slug":"a","title":"A","date_published":"2024-06-01"}
	]}`
	f.bodies[cms.ResourcePages] = `[]`
}
