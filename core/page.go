package core

import (
	"encoding/json"
	"math"
	"strings"
)

// Page is any addressable entity materialized by a handler and identified by
// a PageURI. Concrete page types embed PageBase and add their own domain
// fields. A page returned from the router's cache is shared: callers may
// mutate the instance they hold, but subsequent lookups observe the cached
// instance (lookups are not deep-copied).
type Page interface {
	// URI returns the versioned identity of the page.
	URI() PageURI

	// Metadata returns the mutable metadata block attached to the page.
	Metadata() *PageMetadata
}

// PageMetadata carries bookkeeping shared by all page kinds. TokenCount is
// the estimated token footprint of the serialized page, used for pagination
// budgeting; 0 means unknown (an estimate is computed on demand).
type PageMetadata struct {
	TokenCount int `json:"token_count,omitempty"`
}

// PageBase supplies URI and metadata storage for concrete page types.
// Embed it by value:
//
//	type EmailPage struct {
//	    core.PageBase
//	    Subject string `json:"subject"`
//	    Body    string `json:"body"`
//	}
type PageBase struct {
	PageURI   PageURI      `json:"uri"`
	ParentURI *PageURI     `json:"parent_uri,omitempty"` // Optional provenance link
	Meta      PageMetadata `json:"metadata,omitempty"`
}

// NewPageBase constructs a PageBase for the given URI.
func NewPageBase(uri PageURI) PageBase {
	return PageBase{PageURI: uri}
}

// URI implements Page.
func (p *PageBase) URI() PageURI { return p.PageURI }

// Metadata implements Page.
func (p *PageBase) Metadata() *PageMetadata { return &p.Meta }

// TextPage is a generic page holding plain text content. Its token count is
// estimated from the word count at construction time (4/3 tokens per word).
type TextPage struct {
	PageBase
	Content string `json:"content"`
}

// NewTextPage constructs a TextPage with a derived token-count estimate.
func NewTextPage(uri PageURI, content string) *TextPage {
	p := &TextPage{PageBase: NewPageBase(uri), Content: content}
	words := len(strings.Fields(content))
	p.Meta.TokenCount = int(math.Ceil(float64(words) * 4.0 / 3.0))
	return p
}

// MarshalPage serializes a page to its JSON wire form.
func MarshalPage(p Page) (json.RawMessage, error) {
	return json.Marshal(p)
}
