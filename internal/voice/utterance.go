package voice

import "sync"

// pendingUtterance resolves its Done channel exactly once, either from a
// client completion ack or from a local cancel.
type pendingUtterance struct {
	id       string
	done     chan SynthResult
	once     sync.Once
	onCancel func()
}

func newPendingUtterance(id string, onCancel func()) *pendingUtterance {
	return &pendingUtterance{
		id:       id,
		done:     make(chan SynthResult, 1),
		onCancel: onCancel,
	}
}

func (u *pendingUtterance) ID() string { return u.id }

func (u *pendingUtterance) Done() <-chan SynthResult { return u.done }

func (u *pendingUtterance) Cancel() {
	if u.resolve(SynthResult{Canceled: true}) && u.onCancel != nil {
		u.onCancel()
	}
}

func (u *pendingUtterance) resolve(res SynthResult) bool {
	fired := false
	u.once.Do(func() {
		u.done <- res
		fired = true
	})
	return fired
}

// UtteranceRegistry tracks in-flight utterances so client synth_done acks can
// be routed back regardless of which provider produced them.
type UtteranceRegistry struct {
	mu      sync.Mutex
	pending map[string]*pendingUtterance
}

func NewUtteranceRegistry() *UtteranceRegistry {
	return &UtteranceRegistry{pending: make(map[string]*pendingUtterance)}
}

func (r *UtteranceRegistry) track(u *pendingUtterance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[u.id] = u
}

func (r *UtteranceRegistry) drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, id)
}

// Complete resolves the utterance named by a client ack. An empty code means
// the utterance was spoken to completion.
func (r *UtteranceRegistry) Complete(id, code string) bool {
	r.mu.Lock()
	u, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	return u.resolve(SynthResult{Code: code})
}

// PendingCount reports utterances awaiting completion.
func (r *UtteranceRegistry) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
