package tool

import (
	"encoding/json"

	"github.com/hupe1980/pagemesh/core"
	"github.com/hupe1980/pagemesh/internal/util"
)

// PaginatedResponse is one page of tool results plus continuation metadata.
// Cursor-style responses carry NextCursor; page-style responses carry
// PageNumber, HasNextPage and the optional totals. HasNextPage is true iff
// at least one unreturned result remains; TokenCount, when present, is the
// summed token estimate of exactly the results included here.
type PaginatedResponse struct {
	Results      []core.Page `json:"results"`
	NextCursor   *string     `json:"next_cursor,omitempty"`
	PageNumber   *int        `json:"page_number,omitempty"`
	HasNextPage  *bool       `json:"has_next_page,omitempty"`
	TotalResults *int        `json:"total_results,omitempty"`
	TokenCount   *int        `json:"token_count,omitempty"`
}

// marshalMap serializes the response into the wire-format map returned by
// Tool.Invoke.
func (r *PaginatedResponse) marshalMap() (map[string]any, error) {
	results := make([]any, 0, len(r.Results))

	for _, p := range r.Results {
		raw, err := core.MarshalPage(p)
		if err != nil {
			return nil, err
		}

		results = append(results, json.RawMessage(raw))
	}

	out := map[string]any{"results": results}

	if r.NextCursor != nil {
		out["next_cursor"] = *r.NextCursor
	}

	if r.PageNumber != nil {
		out["page_number"] = *r.PageNumber
	}

	if r.HasNextPage != nil {
		out["has_next_page"] = *r.HasNextPage
	}

	if r.TotalResults != nil {
		out["total_results"] = *r.TotalResults
	}

	if r.TokenCount != nil {
		out["token_count"] = *r.TokenCount
	}

	return out, nil
}

// paginate slices the full result set into the requested page, bounded both
// by pageSize and by the maxTokens budget. The first result of a page is
// always included even when its estimate alone exceeds the budget, so a
// single oversized result cannot make a tool appear empty.
//
// Page offsets are fixed at page*pageSize regardless of how many results the
// token budget admitted: when the budget truncates a page early, the dropped
// results do not shift onto the next page and stay unreachable by page
// iteration, while has_next_page still reports the untruncated remainder.
func paginate(pages []core.Page, page, pageSize, maxTokens int) *PaginatedResponse {
	total := len(pages)

	start := page * pageSize
	if start > total {
		start = total
	}

	var (
		included []core.Page
		tokens   int
	)

	for i := start; i < total && len(included) < pageSize; i++ {
		estimate := tokenEstimate(pages[i])

		if len(included) > 0 && maxTokens > 0 && tokens+estimate > maxTokens {
			break
		}

		included = append(included, pages[i])
		tokens += estimate
	}

	hasNext := start+len(included) < total

	return &PaginatedResponse{
		Results:      included,
		PageNumber:   &page,
		HasNextPage:  &hasNext,
		TotalResults: &total,
		TokenCount:   &tokens,
	}
}

// tokenEstimate prefers the page's own metadata and falls back to encoding
// the serialized page.
func tokenEstimate(p core.Page) int {
	if meta := p.Metadata(); meta != nil && meta.TokenCount > 0 {
		return meta.TokenCount
	}

	raw, err := core.MarshalPage(p)
	if err != nil {
		return 0
	}

	return util.CountTokens(string(raw))
}
