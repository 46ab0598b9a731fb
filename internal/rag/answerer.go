package rag

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jarvis-docs/server/internal/llm"
	"github.com/jarvis-docs/server/internal/logger"
)

const systemPrompt = "You are a document assistant. Use provided context if helpful; " +
	"cite sources as [title p.X]. Keep answers concise."

// fullReadTriggers switch a chat request into full-read mode even
// without the explicit flag.
var fullReadTriggers = []string{"read the entire", "read whole"}

// Completer issues one generation exchange.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message) (string, error)
}

// Answerer assembles prompts and drives the generation strategies.
type Answerer struct {
	llm Completer
}

// NewAnswerer creates a new answerer
func NewAnswerer(completer Completer) *Answerer {
	return &Answerer{llm: completer}
}

// WantsFullRead decides the generation strategy for a request:
// full-read runs only when explicitly requested or trigger-phrased,
// and only when there is context to read.
func WantsFullRead(query string, explicit bool, contextItems int) bool {
	if contextItems == 0 {
		return false
	}
	if explicit {
		return true
	}
	q := strings.ToLower(query)
	for _, t := range fullReadTriggers {
		if strings.Contains(q, t) {
			return true
		}
	}
	return false
}

// Answer runs the normal generation mode: one call over the query plus
// index-labeled context blocks.
func (a *Answerer) Answer(ctx context.Context, query string, contextBlocks []string) (string, error) {
	return a.llm.Complete(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf("%s\n\nContext:\n%s", query, formatContext(contextBlocks))},
	})
}

// FullReadSummarize runs the map-reduce strategy: one independent
// summarization call per context block, then a single synthesis call
// over all partials. Map calls run concurrently; the reduce call waits
// for every one of them. Cancelling the request cancels outstanding
// map calls.
func (a *Answerer) FullReadSummarize(ctx context.Context, contextBlocks []string, goal string) (string, error) {
	if len(contextBlocks) == 0 {
		return "No content available to read.", nil
	}

	logger.Info("Full-read summarization over %d context blocks", len(contextBlocks))

	partials := make([]string, len(contextBlocks))
	g, gctx := errgroup.WithContext(ctx)
	for i, block := range contextBlocks {
		g.Go(func() error {
			prompt := fmt.Sprintf("Summarize this for the goal: %s. Keep key points & page refs if present.", goal)
			summary, err := a.Answer(gctx, prompt, []string{block})
			if err != nil {
				return err
			}
			partials[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	prompt := fmt.Sprintf("Synthesize these partial summaries into one concise answer for the goal: %s. Cite as [title p.X].", goal)
	return a.Answer(ctx, prompt, partials)
}

func formatContext(blocks []string) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = fmt.Sprintf("[CTX %d]\n%s", i+1, b)
	}
	return strings.Join(parts, "\n\n")
}
