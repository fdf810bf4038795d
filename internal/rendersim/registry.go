package rendersim

import (
	"sort"
	"sync"

	"cutroom/internal/renderapi"
	"cutroom/internal/timeline"
)

// registry is the simulator's in-memory composition store. Writes always
// overwrite the whole document, mirroring the local-is-source-of-truth
// contract.
type registry struct {
	mu   sync.Mutex
	docs map[string]renderapi.Document
}

func newRegistry() *registry {
	return &registry{docs: make(map[string]renderapi.Document)}
}

func (r *registry) put(doc renderapi.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.Composition.ID] = doc
}

func (r *registry) get(id string) (renderapi.Document, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	return doc, ok
}

func (r *registry) delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return false
	}
	delete(r.docs, id)
	return true
}

func (r *registry) list() []timeline.Composition {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]timeline.Composition, 0, len(r.docs))
	for _, doc := range r.docs {
		out = append(out, doc.Composition)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}
