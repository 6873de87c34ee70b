package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
)

func TestPagePublisher_Notify(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(t, w, http.StatusOK, map[string]any{"object": "page", "id": "new-page"})
	})
	publisher := NewPagePublisher(client, "parent-1")
	report := domain.NewReport(domain.PeriodDaily, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), "First.\n\nSecond.")

	err := publisher.Notify(context.Background(), report)

	require.NoError(t, err)
	assert.Equal(t, "notion", publisher.Name())
	assert.Equal(t, map[string]any{"page_id": "parent-1"}, got["parent"])
	children, ok := got["children"].([]any)
	require.True(t, ok)
	assert.Len(t, children, 2)
}

func TestPagePublisher_NotifyError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]any{"code": "object_not_found", "message": "missing parent"})
	})

	err := NewPagePublisher(client, "gone").Notify(context.Background(), domain.Report{Title: "t", Body: "b"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "object_not_found", apiErr.Code)
}

func TestParagraphBlocks(t *testing.T) {
	t.Run("skips blank paragraphs", func(t *testing.T) {
		assert.Len(t, paragraphBlocks("a\n\n\n\n  \n\nb"), 2)
	})

	t.Run("chunks long paragraphs by rune", func(t *testing.T) {
		blocks := paragraphBlocks(strings.Repeat("复", maxTextRunes+10))
		assert.Len(t, blocks, 2)
	})

	t.Run("caps block count", func(t *testing.T) {
		assert.Len(t, paragraphBlocks(strings.Repeat("x\n\n", maxChildren+5)), maxChildren)
	})
}
