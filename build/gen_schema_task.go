package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goyek/goyek/v2"
	"github.com/invopop/jsonschema"

	"github.com/spachava753/fieldgen/internal/config"
	"github.com/spachava753/fieldgen/internal/modelcatalog"
)

const schemaBaseURL = "https://raw.githubusercontent.com/spachava753/fieldgen/refs/heads/main/schema/"

type schemaTarget struct {
	file        string
	title       string
	description string
	value       any
}

var schemaTargets = []schemaTarget{
	{
		file:        "fieldgen-settings-schema.json",
		title:       "fieldgen Settings Schema",
		description: "JSON Schema for fieldgen settings files",
		value:       &config.Settings{},
	},
	{
		file:        "model-descriptor-schema.json",
		title:       "fieldgen Model Descriptor Schema",
		description: "JSON Schema for model descriptor files in the models directory",
		value:       &modelcatalog.Descriptor{},
	},
}

// GenSchema generates the JSON schemas for settings and model descriptors
var GenSchema = goyek.Define(goyek.Task{
	Name:  "gen-schema",
	Usage: "Generate JSON schemas for settings and model descriptor files",
	Action: func(a *goyek.A) {
		reflector := &jsonschema.Reflector{
			AllowAdditionalProperties:  false,
			RequiredFromJSONSchemaTags: true,
		}
		schemaDir := filepath.Join(moduleRoot(a), "schema")
		if err := os.MkdirAll(schemaDir, 0755); err != nil {
			a.Fatalf("Failed to create schema directory: %v", err)
		}

		for _, target := range schemaTargets {
			schema := reflector.Reflect(target.value)
			schema.Title = target.title
			schema.Description = target.description
			schema.Version = "https://json-schema.org/draft/2020-12/schema"
			schema.ID = jsonschema.ID(schemaBaseURL + target.file)

			schemaJSON, err := json.MarshalIndent(schema, "", "  ")
			if err != nil {
				a.Fatalf("Failed to marshal schema: %v", err)
			}

			schemaPath := filepath.Join(schemaDir, target.file)
			if err := os.WriteFile(schemaPath, schemaJSON, 0644); err != nil {
				a.Fatalf("Failed to write schema file: %v", err)
			}
			fmt.Printf("Generated schema: %s\n", schemaPath)
		}
	},
})

// moduleRoot uses GOMOD when set and otherwise walks up from the working directory.
func moduleRoot(a *goyek.A) string {
	if gomod := os.Getenv("GOMOD"); gomod != "" {
		return filepath.Dir(gomod)
	}
	wd, err := os.Getwd()
	if err != nil {
		a.Fatalf("Failed to get working directory: %v", err)
	}
	return findModuleRoot(wd)
}

func findModuleRoot(start string) string {
	current := start
	for {
		if _, err := os.Stat(filepath.Join(current, "go.mod")); err == nil {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return current
		}
		current = parent
	}
}
