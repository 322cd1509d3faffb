package pagetoll

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// DefaultInputSchema is attached to capabilities whose ingestion did not
// supply a schema. Every dynamic capability accepts an optional free-form
// query about its content.
const DefaultInputSchema = `{"type":"object","properties":{"query":{"type":"string","description":"Optional free-form question about the content"}}}`

// Registry exposes the capability store with replace-on-register semantics
// and validated execution.
type Registry struct {
	store  CapabilityStore
	logger *slog.Logger
}

func NewRegistry(store CapabilityStore, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: store, logger: logger}
}

// Register inserts or replaces the capability named name. Collisions
// silently replace the prior entry; last write wins.
func (r *Registry) Register(name, description, content string) CapabilityRecord {
	record := CapabilityRecord{
		Name:        name,
		Description: description,
		Content:     content,
		InputSchema: json.RawMessage(DefaultInputSchema),
		CreatedAt:   time.Now(),
	}
	r.store.Register(record)
	r.logger.Info("capability registered", "name", name, "description", description)
	return record
}

// List returns the current capabilities. Order is unspecified.
func (r *Registry) List() []CapabilitySummary {
	return r.store.List()
}

// Lookup returns the full record, or a registry-miss error that carries the
// currently available capabilities so a failed lookup doubles as discovery.
func (r *Registry) Lookup(name string) (CapabilityRecord, error) {
	record, ok := r.store.Lookup(name)
	if !ok {
		return CapabilityRecord{}, r.missError(name)
	}
	return record, nil
}

// Execute resolves the capability, validates params against its input
// schema, and renders the backing content.
func (r *Registry) Execute(name string, params map[string]interface{}) (string, error) {
	record, ok := r.store.Lookup(name)
	if !ok {
		return "", r.missError(name)
	}

	if len(record.InputSchema) > 0 {
		if params == nil {
			params = map[string]interface{}{}
		}
		result, err := gojsonschema.Validate(
			gojsonschema.NewBytesLoader(record.InputSchema),
			gojsonschema.NewGoLoader(params),
		)
		if err != nil {
			return "", Errorf(KindValidation, "parameter validation failed: %v", err)
		}
		if !result.Valid() {
			msgs := make([]string, 0, len(result.Errors()))
			for _, desc := range result.Errors() {
				msgs = append(msgs, desc.String())
			}
			return "", Errorf(KindValidation, "invalid parameters for %q: %s", name, strings.Join(msgs, "; "))
		}
	}

	out := fmt.Sprintf("%s: %s\n\n%s", record.Name, record.Description, record.Content)
	if query, ok := params["query"].(string); ok && query != "" {
		out = fmt.Sprintf("Query: %s\n\n%s", query, out)
	}
	return out, nil
}

func (r *Registry) missError(name string) *Error {
	available := r.store.List()
	return NewError(KindRegistryMiss,
		fmt.Sprintf("capability %q not found", name),
		map[string]interface{}{"available": available})
}
