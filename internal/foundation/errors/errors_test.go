package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "static-builder.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())

		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "static-builder.yaml", file)
	})

	t.Run("Message is stable", func(t *testing.T) {
		cause := errors.New("boom")
		err := TemplateError("template evaluation failed").
			WithContext("source", "/site/index.html").
			WithContext("layout", "base.html").
			WithCause(cause).
			Build()

		assert.Equal(t,
			"[template:fatal] template evaluation failed (layout=base.html, source=/site/index.html): boom",
			err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("Found through wrapping", func(t *testing.T) {
		inner := MediaTypeError("unclassifiable extension").WithContext("extension", "xyz").Build()
		wrapped := fmt.Errorf("build: %w", inner)

		assert.True(t, IsClassified(wrapped))
		assert.True(t, HasCategory(wrapped, CategoryMediaType))
		assert.Equal(t, CategoryMediaType, GetCategory(wrapped))
		assert.Equal(t, CategoryInternal, GetCategory(errors.New("plain")))
	})

	t.Run("WithContext copies", func(t *testing.T) {
		base := BuildError("x").Build()
		extended := base.WithContext("k", "v")

		_, ok := base.Context().Get("k")
		assert.False(t, ok)
		v, ok := extended.Context().GetString("k")
		assert.True(t, ok)
		assert.Equal(t, "v", v)
	})
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name     string
		builder  *ErrorBuilder
		category ErrorCategory
		severity ErrorSeverity
	}{
		{"ConfigError", ConfigError("t"), CategoryConfig, SeverityFatal},
		{"ValidationError", ValidationError("t"), CategoryValidation, SeverityFatal},
		{"FileSystemError", FileSystemError("t"), CategoryFileSystem, SeverityFatal},
		{"FrontMatterError", FrontMatterError("t"), CategoryFrontMatter, SeverityFatal},
		{"TemplateError", TemplateError("t"), CategoryTemplate, SeverityFatal},
		{"MarkupError", MarkupError("t"), CategoryMarkup, SeverityFatal},
		{"MediaTypeError", MediaTypeError("t"), CategoryMediaType, SeverityFatal},
		{"CollisionError", CollisionError("t"), CategoryCollision, SeverityFatal},
		{"BuildError", BuildError("t"), CategoryBuild, SeverityFatal},
		{"RuntimeError", RuntimeError("t"), CategoryRuntime, SeverityError},
		{"InternalError", InternalError("t"), CategoryInternal, SeverityFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.builder.Build()
			assert.Equal(t, tt.category, err.Category())
			assert.Equal(t, tt.severity, err.Severity())
		})
	}
}

func TestErrorContextMerge(t *testing.T) {
	ctx1 := ErrorContext{}.Set("key1", "value1").Set("shared", "original")
	ctx2 := ErrorContext{}.Set("key2", "value2").Set("shared", "overridden")

	merged := ctx1.Merge(ctx2)

	assert.Equal(t, "value1", merged["key1"])
	assert.Equal(t, "value2", merged["key2"])
	assert.Equal(t, "overridden", merged["shared"])
	assert.Equal(t, "original", ctx1["shared"])
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad flag").Build(), 2},
		{"config", ConfigError("bad config").Build(), 7},
		{"collision", CollisionError("dup").Build(), 11},
		{"front matter", FrontMatterError("yaml").Build(), 11},
		{"wrapped template", fmt.Errorf("ctx: %w", TemplateError("tpl").Build()), 11},
		{"runtime", RuntimeError("serve").Build(), 12},
		{"internal", InternalError("oops").Build(), 10},
		{"unclassified", errors.New("unknown"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, stderr bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.stderr = &stderr
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(MediaTypeError("unclassifiable extension").
		WithContext("source", "/site/a.xyz").
		WithContext("extension", "xyz").
		Build())

	assert.Equal(t, 11, code)
	assert.Equal(t, "Error: unclassifiable extension (/site/a.xyz)\n", stderr.String())
	assert.Contains(t, logs.String(), "category=media_type")
	assert.Contains(t, logs.String(), "extension=xyz")
}

func TestCLIErrorAdapter_FormatVerbose(t *testing.T) {
	adapter := NewCLIErrorAdapter(true, slog.Default())
	err := CollisionError("path collision").WithContext("url_path", "/").Build()
	assert.Equal(t, "Error: [collision:fatal] path collision (url_path=/)", adapter.FormatError(err))
	assert.Equal(t, "Error: plain", adapter.FormatError(errors.New("plain")))
}

func TestHTTPErrorAdapter(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	err := TemplateError("template evaluation failed").
		WithContext("source", "/site/index.html").
		WithCause(errors.New(`no such template "base.html"`)).
		Build()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	adapter.WriteErrorResponse(rec, req, err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var payload HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "template evaluation failed", payload.Error)
	assert.Equal(t, "template", payload.Code)
	assert.Equal(t, "/site/index.html", payload.Details["source"])
	assert.Equal(t, `no such template "base.html"`, payload.Details["cause"])

	_, leaked := err.Context().Get("cause")
	assert.False(t, leaked, "payload details must not mutate the error context")

	assert.Equal(t, http.StatusBadRequest, adapter.StatusCodeFor(ValidationError("v").Build()))
	assert.Equal(t, http.StatusServiceUnavailable, adapter.StatusCodeFor(RuntimeError("r").Build()))
	assert.Equal(t, http.StatusInternalServerError, adapter.StatusCodeFor(errors.New("x")))
}
