package mirror

import "sync"

// targets serialises runs per remote target across every Syncer in the
// process.
var targets = &registry{held: make(map[string]bool)}

type registry struct {
	mu   sync.Mutex
	held map[string]bool
}

// tryAcquire claims key without waiting. The returned release must be called
// exactly once.
func (r *registry) tryAcquire(key string) (release func(), ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.held[key] {
		return nil, false
	}
	r.held[key] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.held, key)
			r.mu.Unlock()
		})
	}, true
}

func (r *registry) busy(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.held[key]
}
