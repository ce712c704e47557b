package tool

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pagemesh/core"
)

func makePages(n int, tokens int) []core.Page {
	pages := make([]core.Page, n)
	for i := range pages {
		p := core.NewTextPage(core.MustPageURI(fmt.Sprintf("test/doc:%d@1", i)), fmt.Sprintf("document %d", i))
		p.Meta.TokenCount = tokens
		pages[i] = p
	}

	return pages
}

func searchDef() Definition {
	return Definition{
		Name:        "search_documents",
		Description: "Search documents by keyword",
		Parameters: []Param{
			{Name: "query", Type: "string", Description: "Search query", Required: true},
		},
	}
}

func TestNew(t *testing.T) {
	pagesFn := PagesFunc(func(_ context.Context, _ map[string]any) ([]core.Page, error) {
		return makePages(1, 10), nil
	})

	paginatedFn := PaginatedFunc(func(_ context.Context, _ map[string]any) (*PaginatedResponse, error) {
		return &PaginatedResponse{Results: makePages(1, 10)}, nil
	})

	t.Run("accepts pages function", func(t *testing.T) {
		_, err := New(searchDef(), pagesFn)
		assert.NoError(t, err)
	})

	t.Run("accepts paginated function", func(t *testing.T) {
		_, err := New(searchDef(), paginatedFn)
		assert.NoError(t, err)
	})

	t.Run("rejects unsupported function type", func(t *testing.T) {
		_, err := New(searchDef(), func() string { return "nope" })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "func() string")
	})

	t.Run("rejects page size on natively paginated function", func(t *testing.T) {
		_, err := New(searchDef(), paginatedFn, WithPageSize(5))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already paginates")
	})

	t.Run("rejects page size below one", func(t *testing.T) {
		_, err := New(searchDef(), pagesFn, WithPageSize(0))
		assert.Error(t, err)

		_, err = New(searchDef(), pagesFn, WithPageSize(-3))
		assert.Error(t, err)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := New(Definition{}, pagesFn)
		assert.Error(t, err)
	})

	t.Run("pagination declares page parameter", func(t *testing.T) {
		tl, err := New(searchDef(), pagesFn, WithPageSize(5))
		require.NoError(t, err)

		params := tl.Definition().Parameters
		require.Len(t, params, 2)
		assert.Equal(t, "page", params[1].Name)
		assert.False(t, params[1].Required)
	})
}

func TestInvoke(t *testing.T) {
	pagesFn := PagesFunc(func(_ context.Context, args map[string]any) ([]core.Page, error) {
		if args["query"] == "nothing" {
			return nil, nil
		}

		return makePages(3, 10), nil
	})

	tl, err := New(searchDef(), pagesFn)
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		out, err := tl.Invoke(context.Background(), ArgsInput{"query": "report"})
		require.NoError(t, err)

		results, ok := out["results"].([]any)
		require.True(t, ok)
		assert.Len(t, results, 3)
	})

	t.Run("string input binds first parameter", func(t *testing.T) {
		out, err := tl.Invoke(context.Background(), StringInput("report"))
		require.NoError(t, err)
		assert.Contains(t, out, "results")
	})

	t.Run("missing required argument", func(t *testing.T) {
		_, err := tl.Invoke(context.Background(), ArgsInput{})
		require.Error(t, err)

		var valErr *core.ValidationError
		assert.ErrorAs(t, err, &valErr)
	})

	t.Run("zero results become not found envelope", func(t *testing.T) {
		out, err := tl.Invoke(context.Background(), ArgsInput{"query": "nothing"})
		require.NoError(t, err)

		assert.Equal(t, string(core.ResponseNotFound), out["response_code"])
		assert.Empty(t, out["references"])
		assert.NotEmpty(t, out["error_message"])
	})

	t.Run("explicit no match becomes not found envelope", func(t *testing.T) {
		failing, err := New(searchDef(), PagesFunc(func(_ context.Context, _ map[string]any) ([]core.Page, error) {
			return nil, fmt.Errorf("looked everywhere: %w", core.ErrNoPagesFound)
		}))
		require.NoError(t, err)

		out, err := failing.Invoke(context.Background(), ArgsInput{"query": "x"})
		require.NoError(t, err)
		assert.Equal(t, string(core.ResponseNotFound), out["response_code"])
	})

	t.Run("unexpected error becomes execution error", func(t *testing.T) {
		failing, err := New(searchDef(), PagesFunc(func(_ context.Context, _ map[string]any) ([]core.Page, error) {
			return nil, errors.New("backend unavailable")
		}))
		require.NoError(t, err)

		_, err = failing.Invoke(context.Background(), ArgsInput{"query": "x"})
		require.Error(t, err)

		var execErr *ExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.Equal(t, "search_documents", execErr.Tool)
	})
}

func TestInvokePaginated(t *testing.T) {
	docs := makePages(10, 100)

	pagesFn := PagesFunc(func(_ context.Context, _ map[string]any) ([]core.Page, error) {
		return docs, nil
	})

	tl, err := New(searchDef(), pagesFn, WithPageSize(4), WithMaxTokens(10_000))
	require.NoError(t, err)

	t.Run("first page", func(t *testing.T) {
		out, err := tl.Invoke(context.Background(), ArgsInput{"query": "x"})
		require.NoError(t, err)

		assert.Len(t, out["results"], 4)
		assert.Equal(t, 0, out["page_number"])
		assert.Equal(t, true, out["has_next_page"])
		assert.Equal(t, 10, out["total_results"])
		assert.Equal(t, 400, out["token_count"])
	})

	t.Run("pages concatenate to original order", func(t *testing.T) {
		var total int

		for page := 0; ; page++ {
			out, err := tl.Invoke(context.Background(), ArgsInput{"query": "x", "page": page})
			require.NoError(t, err)

			results := out["results"].([]any)
			total += len(results)

			if !out["has_next_page"].(bool) {
				break
			}
		}

		assert.Equal(t, 10, total)
	})

	t.Run("last page has no next", func(t *testing.T) {
		out, err := tl.Invoke(context.Background(), ArgsInput{"query": "x", "page": 2})
		require.NoError(t, err)

		assert.Len(t, out["results"], 2)
		assert.Equal(t, false, out["has_next_page"])
	})

	t.Run("negative page fails fast", func(t *testing.T) {
		_, err := tl.Invoke(context.Background(), ArgsInput{"query": "x", "page": -1})
		require.Error(t, err)

		var valErr *core.ValidationError
		assert.ErrorAs(t, err, &valErr)
	})

	t.Run("page argument accepts json numbers", func(t *testing.T) {
		out, err := tl.Invoke(context.Background(), ArgsInput{"query": "x", "page": float64(1)})
		require.NoError(t, err)
		assert.Equal(t, 1, out["page_number"])
	})

	t.Run("token budget truncates page", func(t *testing.T) {
		budgeted, err := New(searchDef(), pagesFn, WithPageSize(4), WithMaxTokens(250))
		require.NoError(t, err)

		out, err := budgeted.Invoke(context.Background(), ArgsInput{"query": "x"})
		require.NoError(t, err)

		// 100 tokens each: two fit the 250 budget, the third would exceed it.
		assert.Len(t, out["results"], 2)
		assert.Equal(t, 200, out["token_count"])
		assert.Equal(t, true, out["has_next_page"])
	})

	t.Run("oversized first result is still returned", func(t *testing.T) {
		big := makePages(2, 5_000)

		oversized, err := New(searchDef(), PagesFunc(func(_ context.Context, _ map[string]any) ([]core.Page, error) {
			return big, nil
		}), WithPageSize(4), WithMaxTokens(100))
		require.NoError(t, err)

		out, err := oversized.Invoke(context.Background(), ArgsInput{"query": "x"})
		require.NoError(t, err)

		assert.Len(t, out["results"], 1)
		assert.Equal(t, true, out["has_next_page"])
	})
}

func TestInvokeNativePagination(t *testing.T) {
	cursor := "next-42"

	paginatedFn := PaginatedFunc(func(_ context.Context, args map[string]any) (*PaginatedResponse, error) {
		// Cursor passed straight through, pagination handled by the function.
		if args["cursor"] == cursor {
			return &PaginatedResponse{Results: makePages(1, 10)}, nil
		}

		return &PaginatedResponse{Results: makePages(2, 10), NextCursor: &cursor}, nil
	})

	def := Definition{
		Name:        "list_messages",
		Description: "List chat messages",
		Parameters: []Param{
			{Name: "channel", Type: "string", Required: true},
			{Name: "cursor", Type: "string"},
		},
	}

	tl, err := New(def, paginatedFn)
	require.NoError(t, err)

	out, err := tl.Invoke(context.Background(), ArgsInput{"channel": "general"})
	require.NoError(t, err)
	assert.Equal(t, cursor, out["next_cursor"])

	out, err = tl.Invoke(context.Background(), ArgsInput{"channel": "general", "cursor": cursor})
	require.NoError(t, err)
	assert.NotContains(t, out, "next_cursor")
}

func TestResolveInput(t *testing.T) {
	def := searchDef()

	t.Run("string input with no declared parameters", func(t *testing.T) {
		_, err := ResolveInput(StringInput("x"), Definition{Name: "noop"})
		assert.Error(t, err)
	})

	t.Run("args input is copied", func(t *testing.T) {
		in := ArgsInput{"query": "x"}

		args, err := ResolveInput(in, def)
		require.NoError(t, err)

		args["query"] = "mutated"
		assert.Equal(t, "x", in["query"])
	})

	t.Run("nil input yields empty args", func(t *testing.T) {
		args, err := ResolveInput(nil, def)
		require.NoError(t, err)
		assert.Empty(t, args)
	})
}

func TestParseArgs(t *testing.T) {
	t.Run("object", func(t *testing.T) {
		in, err := ParseArgs(`{"query": "report"}`)
		require.NoError(t, err)
		assert.Equal(t, ArgsInput{"query": "report"}, in)
	})

	t.Run("string", func(t *testing.T) {
		in, err := ParseArgs(`"report"`)
		require.NoError(t, err)
		assert.Equal(t, StringInput("report"), in)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := ParseArgs(`[1, 2, 3]`)
		assert.Error(t, err)
	})
}

func TestFormattedDescription(t *testing.T) {
	pagesFn := PagesFunc(func(_ context.Context, _ map[string]any) ([]core.Page, error) {
		return makePages(1, 10), nil
	})

	tl, err := New(searchDef(), pagesFn, WithPageSize(5))
	require.NoError(t, err)

	desc := tl.FormattedDescription()
	assert.Contains(t, desc, "search_documents")
	assert.Contains(t, desc, "query (string, required)")
	assert.Contains(t, desc, "paginated")
}
