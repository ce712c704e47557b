package core

// PageReference is a pointer to a page produced by an agent search, carrying
// the model's explanation of why the page is relevant. The page itself is
// attached during reference resolution; a reference whose page failed to
// resolve is still returned with the resolution error recorded, so callers
// can report partial results instead of losing the whole batch.
type PageReference struct {
	URI         PageURI `json:"uri"`
	Score       float64 `json:"score,omitempty"`
	Explanation string  `json:"explanation,omitempty"`

	page       Page
	resolveErr error
}

// NewPageReference constructs an unresolved reference.
func NewPageReference(uri PageURI, explanation string) PageReference {
	return PageReference{URI: uri, Explanation: explanation}
}

// Page returns the resolved page or nil when resolution has not happened or
// failed. Check ResolveErr to distinguish the two.
func (r *PageReference) Page() Page { return r.page }

// Resolved reports whether a page is attached to this reference.
func (r *PageReference) Resolved() bool { return r.page != nil }

// ResolveErr returns the error recorded during a failed resolution, or nil.
func (r *PageReference) ResolveErr() error { return r.resolveErr }

// AttachPage records a successfully resolved page.
func (r *PageReference) AttachPage(p Page) {
	r.page = p
	r.resolveErr = nil
}

// RecordResolveError marks the reference as failed to resolve without
// discarding it.
func (r *PageReference) RecordResolveError(err error) {
	r.resolveErr = err
}
