// Package docs carries the API's OpenAPI document and registers it with swag
// so the swagger UI can load it.
package docs

import (
	_ "embed"
	"encoding/json"

	"github.com/swaggo/swag"
)

//go:embed swagger.json
var swaggerJSON []byte

// SwaggerSpec is the part of swagger.json the index page lists.
type SwaggerSpec struct {
	Info  Info                           `json:"info"`
	Paths map[string]map[string]PathInfo `json:"paths"`
}

// Info is the document's info block.
type Info struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

// PathInfo contains information about an API endpoint
type PathInfo struct {
	Summary     string                 `json:"summary"`
	Description string                 `json:"description"`
	Tags        []string               `json:"tags"`
	Parameters  []interface{}          `json:"parameters"`
	Responses   map[string]interface{} `json:"responses"`
}

// GetSwaggerSpec returns the parsed swagger specification
func GetSwaggerSpec() (*SwaggerSpec, error) {
	var spec SwaggerSpec
	if err := json.Unmarshal(swaggerJSON, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

type doc struct{}

func (doc) ReadDoc() string { return string(swaggerJSON) }

func init() {
	swag.Register(swag.Name, doc{})
}
