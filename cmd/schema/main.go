// Command schema emits a JSON schema describing every wire message in both
// directions, for client developers.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"planetfall/server/internal/net/proto"
)

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "output path for the JSON schema")
	flag.Parse()

	if outPath == "" {
		log.Fatal("schema: missing -out path")
	}

	schema := buildSchema()

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("schema: marshal: %v", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		log.Fatalf("schema: create output dir: %v", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		log.Fatalf("schema: write: %v", err)
	}
}

func buildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}

	requests := []any{
		&proto.ReadyRequest{},
		&proto.RenderedRequest{},
		&proto.MoveRequest{},
		&proto.SelectRequest{},
		&proto.AddHPRequest{},
		&proto.DamageRequest{},
	}
	broadcasts := []any{
		&proto.ConnectMessage{},
		&proto.ReadyMessage{},
		&proto.MapInitMessage{},
		&proto.GameStartedMessage{},
		&proto.SelectMessage{},
		&proto.DamageMessage{},
		&proto.GameOverMessage{},
	}

	reflect := func(messages []any) []*jsonschema.Schema {
		variants := make([]*jsonschema.Schema, 0, len(messages))
		for _, message := range messages {
			variant := reflector.Reflect(message)
			variant.Version = ""
			variants = append(variants, variant)
		}
		return variants
	}

	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "Planetfall Wire Messages",
		Description: "Client requests and server broadcasts, one envelope per frame.",
		OneOf:       append(reflect(requests), reflect(broadcasts)...),
	}
}
