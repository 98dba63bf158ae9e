package config

import "github.com/invopop/jsonschema"

// Schema describes pong.yaml as a JSON schema, for editor completion.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
	}
	schema := reflector.Reflect(new(Config))
	schema.Title = "tui-pong configuration"
	schema.Description = "Validates ~/.pong/configs/pong.yaml"
	return schema
}
