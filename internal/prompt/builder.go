package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/Alice344/MedSQLAgent/internal/logging"
	"github.com/Alice344/MedSQLAgent/internal/schema"
	"github.com/Alice344/MedSQLAgent/internal/vectorstore"
)

// Mode selects how schemas are chosen for the prompt
type Mode string

const (
	// ModeAll includes every currently known schema
	ModeAll Mode = "all"
	// ModeRelevant retrieves the top-k schemas nearest to the question,
	// falling back to ModeAll when retrieval returns nothing
	ModeRelevant Mode = "relevant"
)

// Builder assembles the bounded system prompt for SQL generation. The output
// is a single text block; no length-based truncation is performed here, which
// assumes the target scale keeps schema sections below provider limits.
type Builder struct {
	store           *vectorstore.Store
	topK            int
	includeExamples bool
	logger          *logging.Logger
}

// NewBuilder creates a prompt builder backed by the given schema store
func NewBuilder(store *vectorstore.Store, topK int, includeExamples bool) *Builder {
	return &Builder{
		store:           store,
		topK:            topK,
		includeExamples: includeExamples,
		logger:          logging.GetLogger().WithField("component", "prompt"),
	}
}

// Build assembles the system prompt for the given question. It never fails:
// retrieval problems or empty retrieval results fall back to including all
// known schemas.
func (b *Builder) Build(
	ctx context.Context,
	question string,
	schemas map[string]schema.TableSchema,
	mode Mode,
) string {
	schemaText := b.schemaSection(ctx, question, schemas, mode)

	parts := []string{
		fmt.Sprintf(basePromptFormat, schemaText),
		optimizationPrompt,
		medicalContextPrompt,
		errorHandlingPrompt,
	}

	if b.includeExamples {
		parts = append(parts, fewShotExamplesPrompt)
	}

	return strings.Join(parts, "\n\n")
}

// schemaSection renders the selected schemas. The relevant path may come back
// empty (no matches, or retrieval failed); the all-schemas rendering is the
// fallback so the schema section is never silently empty.
func (b *Builder) schemaSection(
	ctx context.Context,
	question string,
	schemas map[string]schema.TableSchema,
	mode Mode,
) string {
	if mode == ModeRelevant && question != "" {
		results, err := b.store.Search(ctx, question, b.topK)
		if err != nil {
			b.logger.WithError(err).Warn("schema retrieval failed, including all schemas")
		} else if len(results) > 0 {
			blocks := make([]string, 0, len(results))
			for _, r := range results {
				blocks = append(blocks, r.Record.SchemaText)
			}

			return strings.Join(blocks, "\n\n")
		}
	}

	if len(schemas) == 0 {
		schemas = b.store.GetAllSchemas()
	}

	return schema.FormatAll(schemas)
}
