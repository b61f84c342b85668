// Package docs registers the hand-authored OpenAPI spec for the status
// API (SPEC_FULL §A.6). Normally produced by `swag init`; authored by hand
// here, mirroring the annotations in internal/api/handler, which no
// codegen pass reads.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{.Description}}",
        "contact": {},
        "license": {"name": "MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {"tags": ["meta"], "summary": "API root info", "responses": {"200": {"description": "OK"}}}
        },
        "/health": {
            "get": {"tags": ["health"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}
        },
        "/health/db": {
            "get": {"tags": ["health"], "summary": "Database health check", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}
        },
        "/api/v1/season/{dynasty_id}": {
            "get": {
                "tags": ["season"],
                "summary": "Get dynasty season state",
                "parameters": [{"name": "dynasty_id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/season/{dynasty_id}/events": {
            "get": {
                "tags": ["season"],
                "summary": "List dynasty events",
                "parameters": [
                    {"name": "dynasty_id", "in": "path", "required": true, "type": "string"},
                    {"name": "limit", "in": "query", "required": false, "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Season Cycle Engine Status API",
	Description:      "Read-only status and inspection endpoints over the season cycle engine's dynasty state and event store.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
