package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
)

const (
	maxTextRunes = 2000
	maxChildren  = 100
)

// PagePublisher implements domain.Notifier by creating a child page under a
// parent page for every report.
type PagePublisher struct {
	client   *Client
	parentID string
}

var _ domain.Notifier = (*PagePublisher)(nil)

// NewPagePublisher creates a publisher that writes below parentID.
func NewPagePublisher(client *Client, parentID string) *PagePublisher {
	return &PagePublisher{client: client, parentID: parentID}
}

func (p *PagePublisher) Name() string { return "notion" }

// Notify creates the review page. Each paragraph of the body becomes a block.
func (p *PagePublisher) Notify(ctx context.Context, report domain.Report) error {
	payload := map[string]any{
		"parent": map[string]any{"page_id": p.parentID},
		"properties": map[string]any{
			"title": map[string]any{"title": []any{textObject(report.Title)}},
		},
		"children": paragraphBlocks(report.Body),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := p.client.cfg.BaseURL + "/pages"
	_, err = withRetry(ctx, p.client, func() (struct{}, error) {
		var created struct {
			ID string `json:"id"`
		}
		if err := p.client.post(ctx, url, body, &created); err != nil {
			return struct{}{}, err
		}
		p.client.logger.InfoContext(ctx, "review page created", "page_id", created.ID, "title", report.Title)
		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("create review page: %w", err)
	}
	return nil
}

func textObject(s string) map[string]any {
	return map[string]any{"type": "text", "text": map[string]any{"content": s}}
}

// paragraphBlocks splits text on blank lines and chunks long paragraphs to
// the Notion rich text limit.
func paragraphBlocks(text string) []any {
	blocks := []any{}
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		for _, chunk := range chunkRunes(para, maxTextRunes) {
			if len(blocks) == maxChildren {
				return blocks
			}
			blocks = append(blocks, map[string]any{
				"object":    "block",
				"type":      "paragraph",
				"paragraph": map[string]any{"rich_text": []any{textObject(chunk)}},
			})
		}
	}
	return blocks
}

func chunkRunes(s string, size int) []string {
	runes := []rune(s)
	var chunks []string
	for len(runes) > size {
		chunks = append(chunks, string(runes[:size]))
		runes = runes[size:]
	}
	return append(chunks, string(runes))
}
