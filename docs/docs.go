// Package docs registers the OpenAPI description of the read-only HTTP API
// with swag so gin-swagger can serve it under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/repos": {
            "get": {
                "description": "Every cached repository, most starred first",
                "produces": ["application/json"],
                "tags": ["repositories"],
                "summary": "List cached repositories",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.RepositoryListResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/repos/{key}": {
            "get": {
                "description": "Looks the repository up by numeric id, otherwise by exact name",
                "produces": ["application/json"],
                "tags": ["repositories"],
                "summary": "Get a cached repository",
                "parameters": [
                    {"type": "string", "description": "Repository id or name", "name": "key", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Snapshot"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "description": "Offline flag, schedule state and the last sync report",
                "produces": ["application/json"],
                "tags": ["status"],
                "summary": "Sync status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.Status"}}
                }
            }
        }
    },
    "definitions": {
        "api.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "repository not found"}
            }
        },
        "api.RepositoryListResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer", "example": 30},
                "repositories": {"type": "array", "items": {"$ref": "#/definitions/models.Snapshot"}}
            }
        },
        "api.Status": {
            "type": "object",
            "properties": {
                "count": {"type": "integer", "example": 30},
                "interval": {"type": "string", "example": "5m0s"},
                "last_sync": {"$ref": "#/definitions/models.SyncReport"},
                "offline": {"type": "boolean", "example": false},
                "scheduled": {"type": "boolean", "example": true}
            }
        },
        "models.Snapshot": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "language": {"type": "string"},
                "name": {"type": "string"},
                "owner": {"type": "string"},
                "stars": {"type": "integer"}
            }
        },
        "models.SyncReport": {
            "type": "object",
            "properties": {
                "end_time": {"type": "string"},
                "failed": {"type": "integer"},
                "fetched": {"type": "integer"},
                "inserted": {"type": "integer"},
                "pruned": {"type": "integer"},
                "start_time": {"type": "string"},
                "unchanged": {"type": "integer"},
                "updated": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "GitHub Trending API",
	Description:      "Read-only view of the cached most-starred GitHub repositories",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
