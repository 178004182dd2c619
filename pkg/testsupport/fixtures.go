package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/goliatone/go-configform/pkg/schema"
)

// Fixture paths used across package tests.
const (
	PathAuthEnabled  = "settings.server.auth.enabled"
	PathAdminKey     = "settings.server.auth.adminKey"
	PathServerPort   = "settings.server.port"
	PathVolume       = "settings.volume"
	PathDebug        = "settings.debug"
	PathEngineKind   = "engine.kind"
	PathPiperModel   = "engine.piper.modelPath"
	PathPiperUseGPU  = "engine.piper.useGPU"
	PathModelToggles = "modelToggles"
)

// Float returns a pointer to f for metadata bounds.
func Float(f float64) *float64 {
	return &f
}

// EngineOptions are the dropdown options used by the engine.kind fixture.
func EngineOptions() []schema.Option {
	return []schema.Option{
		{Value: "piper", Label: "Piper"},
		{Value: "sapi4", Label: "SAPI4"},
	}
}

// TTSSchema returns a representative settings schema for a text-to-speech
// desktop application. The admin key hides when auth is off, piper settings
// are disabled unless piper is the active engine and the GPU toggle hides
// only while auth is off and piper is selected.
func TTSSchema() schema.ConfigSchema {
	return schema.ConfigSchema{
		Fields: []schema.Field{
			{
				Path:  PathAdminKey,
				Value: schema.Text("s3cret"),
				Metadata: &schema.FieldMetadata{
					Label:    "Admin Key",
					Type:     schema.FieldTypePassword,
					Required: true,
					HideWhen: schema.Conditions{{Field: PathAuthEnabled, Value: false}},
				},
			},
			{
				Path:     PathAuthEnabled,
				Value:    schema.Bool(true),
				Metadata: &schema.FieldMetadata{Label: "Enabled", Type: schema.FieldTypeCheckbox},
			},
			{
				Path:  PathServerPort,
				Value: schema.Number(8124),
				Metadata: &schema.FieldMetadata{
					Label:    "Port",
					Type:     schema.FieldTypeNumber,
					Min:      Float(1),
					Max:      Float(65535),
					Required: true,
				},
			},
			{
				Path:  PathVolume,
				Value: schema.Number(80),
				Metadata: &schema.FieldMetadata{
					Label: "Volume",
					Type:  schema.FieldTypeNumber,
					Min:   Float(0),
					Max:   Float(100),
				},
			},
			{
				Path:     PathDebug,
				Value:    schema.Bool(false),
				Metadata: &schema.FieldMetadata{Label: "Debug", Type: schema.FieldTypeCheckbox, Hidden: true},
			},
			{
				Path:  PathEngineKind,
				Value: schema.Text("piper"),
				Metadata: &schema.FieldMetadata{
					Label:   "Engine",
					Type:    schema.FieldTypeDropdown,
					Options: EngineOptions(),
				},
			},
			{
				Path:  PathPiperModel,
				Value: schema.Path("/opt/piper/en_US.onnx"),
				Metadata: &schema.FieldMetadata{
					Label:       "Model Path",
					Type:        schema.FieldTypePath,
					PathType:    schema.PathTypeFile,
					Required:    true,
					DisableWhen: schema.Conditions{{Field: PathEngineKind, Value: "sapi4"}},
				},
			},
			{
				Path:  PathPiperUseGPU,
				Value: schema.Bool(false),
				Metadata: &schema.FieldMetadata{
					Label: "Use GPU",
					Type:  schema.FieldTypeCheckbox,
					HideWhen: schema.Conditions{
						{Field: PathAuthEnabled, Value: false},
						{Field: PathEngineKind, Value: "piper"},
					},
				},
			},
			{
				Path:     PathModelToggles,
				Value:    schema.Object(map[string]any{"piper": true, "sapi4": false}),
				Metadata: &schema.FieldMetadata{Label: "Model Toggles", Type: schema.FieldTypeObject, Dynamic: true},
			},
		},
	}
}

// MustModel builds a schema.Model or fails the test.
func MustModel(t testing.TB, s schema.ConfigSchema) *schema.Model {
	t.Helper()

	model, err := schema.New(s)
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	return model
}

// LoadSchema reads a JSON fixture into a ConfigSchema.
func LoadSchema(t testing.TB, path string) schema.ConfigSchema {
	t.Helper()

	out, err := LoadSchemaFromPath(path)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	return out
}

// LoadSchemaFromPath returns a ConfigSchema without requiring testing.T.
func LoadSchemaFromPath(path string) (schema.ConfigSchema, error) {
	if path == "" {
		return schema.ConfigSchema{}, errors.New("testsupport: schema path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.ConfigSchema{}, fmt.Errorf("testsupport: read schema: %w", err)
	}
	var out schema.ConfigSchema
	if err := json.Unmarshal(data, &out); err != nil {
		return schema.ConfigSchema{}, fmt.Errorf("testsupport: unmarshal schema: %w", err)
	}
	return out, nil
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
