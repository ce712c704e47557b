package pagemesh

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pagemesh/core"
	"github.com/hupe1980/pagemesh/tool"
)

type emailPage struct {
	core.PageBase
	Subject string `json:"subject"`
	Read    bool   `json:"read"`
}

func newActionApp(t *testing.T) *App {
	t.Helper()

	app := New("test")

	require.NoError(t, app.RegisterHandler("Email", func(_ context.Context, uri core.PageURI) (core.Page, error) {
		if uri.ID == "gone" {
			return nil, errors.New("mailbox unavailable")
		}

		return &emailPage{PageBase: core.NewPageBase(uri), Subject: "hello"}, nil
	}))

	return app
}

func TestRegisterAction(t *testing.T) {
	markRead := func(_ context.Context, page core.Page, _ map[string]any) (bool, error) {
		page.(*emailPage).Read = true
		return true, nil
	}

	t.Run("empty name", func(t *testing.T) {
		app := newActionApp(t)

		var cfgErr *core.ConfigurationError
		assert.ErrorAs(t, app.RegisterAction("", markRead), &cfgErr)
	})

	t.Run("nil function", func(t *testing.T) {
		app := newActionApp(t)

		var cfgErr *core.ConfigurationError
		assert.ErrorAs(t, app.RegisterAction("mark_read", nil), &cfgErr)
	})

	t.Run("duplicate name", func(t *testing.T) {
		app := newActionApp(t)

		require.NoError(t, app.RegisterAction("mark_read", markRead))

		var cfgErr *core.ConfigurationError
		assert.ErrorAs(t, app.RegisterAction("mark_read", markRead), &cfgErr)
	})

	t.Run("names are sorted", func(t *testing.T) {
		app := newActionApp(t)

		require.NoError(t, app.RegisterAction("mark_unread", markRead))
		require.NoError(t, app.RegisterAction("archive", markRead))

		assert.Equal(t, []string{"archive", "mark_unread"}, app.Actions())
	})
}

func TestInvokeAction(t *testing.T) {
	t.Run("mutation is visible through the router", func(t *testing.T) {
		app := newActionApp(t)

		require.NoError(t, app.RegisterAction("mark_read", func(_ context.Context, page core.Page, _ map[string]any) (bool, error) {
			page.(*emailPage).Read = true
			return true, nil
		}))

		result, err := app.InvokeAction(context.Background(), "mark_read", tool.ArgsInput{"uri": "test/Email:m1@1"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"success": true}, result)

		page, err := app.Resolve(context.Background(), core.MustPageURI("test/Email:m1@1"))
		require.NoError(t, err)
		assert.True(t, page.(*emailPage).Read)
	})

	t.Run("string input binds to the page parameter", func(t *testing.T) {
		app := newActionApp(t)

		var got core.PageURI

		require.NoError(t, app.RegisterAction("archive", func(_ context.Context, page core.Page, _ map[string]any) (bool, error) {
			got = page.URI()
			return true, nil
		}, WithPageParam("email")))

		result, err := app.InvokeAction(context.Background(), "archive", tool.StringInput("test/Email:m2@1"))
		require.NoError(t, err)

		assert.Equal(t, map[string]any{"success": true}, result)
		assert.Equal(t, core.MustPageURI("test/Email:m2@1"), got)
	})

	t.Run("extra arguments reach the function without the page argument", func(t *testing.T) {
		app := newActionApp(t)

		var got map[string]any

		require.NoError(t, app.RegisterAction("label", func(_ context.Context, _ core.Page, args map[string]any) (bool, error) {
			got = args
			return true, nil
		}))

		_, err := app.InvokeAction(context.Background(), "label", tool.ArgsInput{
			"uri":   "test/Email:m3@1",
			"label": "urgent",
		})
		require.NoError(t, err)

		assert.Equal(t, map[string]any{"label": "urgent"}, got)
	})

	t.Run("refused mutation", func(t *testing.T) {
		app := newActionApp(t)

		require.NoError(t, app.RegisterAction("mark_read", func(_ context.Context, _ core.Page, _ map[string]any) (bool, error) {
			return false, nil
		}))

		result, err := app.InvokeAction(context.Background(), "mark_read", tool.StringInput("test/Email:m4@1"))
		require.NoError(t, err)

		assert.Equal(t, map[string]any{"success": false}, result)
	})

	t.Run("function error becomes a failure envelope", func(t *testing.T) {
		app := newActionApp(t)

		require.NoError(t, app.RegisterAction("mark_read", func(_ context.Context, _ core.Page, _ map[string]any) (bool, error) {
			return false, errors.New("imap write rejected")
		}))

		result, err := app.InvokeAction(context.Background(), "mark_read", tool.StringInput("test/Email:m5@1"))
		require.NoError(t, err)

		assert.Equal(t, false, result["success"])
		assert.Contains(t, result["error"], "imap write rejected")
	})

	t.Run("unresolvable page becomes a failure envelope", func(t *testing.T) {
		app := newActionApp(t)

		require.NoError(t, app.RegisterAction("mark_read", func(_ context.Context, _ core.Page, _ map[string]any) (bool, error) {
			t.Fatal("function must not run when the page cannot be resolved")
			return false, nil
		}))

		result, err := app.InvokeAction(context.Background(), "mark_read", tool.StringInput("test/Email:gone@1"))
		require.NoError(t, err)

		assert.Equal(t, false, result["success"])
		assert.Contains(t, result["error"], "failed to retrieve page")
	})

	t.Run("missing page argument becomes a failure envelope", func(t *testing.T) {
		app := newActionApp(t)

		require.NoError(t, app.RegisterAction("mark_read", func(_ context.Context, _ core.Page, _ map[string]any) (bool, error) {
			return true, nil
		}))

		result, err := app.InvokeAction(context.Background(), "mark_read", tool.ArgsInput{"label": "urgent"})
		require.NoError(t, err)

		assert.Equal(t, false, result["success"])
		assert.Contains(t, result["error"], `missing required argument "uri"`)
	})

	t.Run("page type restriction", func(t *testing.T) {
		app := newActionApp(t)

		require.NoError(t, app.RegisterAction("mark_read", func(_ context.Context, _ core.Page, _ map[string]any) (bool, error) {
			return true, nil
		}, WithPageType("Email")))

		result, err := app.InvokeAction(context.Background(), "mark_read", tool.StringInput("test/Calendar:c1@1"))
		require.NoError(t, err)

		assert.Equal(t, false, result["success"])
		assert.Contains(t, result["error"], `accepts pages of type "Email"`)
	})

	t.Run("unknown action is an error, not an envelope", func(t *testing.T) {
		app := newActionApp(t)

		_, err := app.InvokeAction(context.Background(), "mark_read", tool.StringInput("test/Email:m6@1"))
		require.Error(t, err)

		var valErr *core.ValidationError
		assert.ErrorAs(t, err, &valErr)
	})

	t.Run("malformed uri becomes a failure envelope", func(t *testing.T) {
		app := newActionApp(t)

		require.NoError(t, app.RegisterAction("mark_read", func(_ context.Context, _ core.Page, _ map[string]any) (bool, error) {
			return true, nil
		}))

		result, err := app.InvokeAction(context.Background(), "mark_read", tool.StringInput("not a uri"))
		require.NoError(t, err)

		assert.Equal(t, false, result["success"])
	})
}
