// Package docs registers the Workspace API swagger spec with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness and database reachability",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/topics": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Topics"],
                "summary": "List topics with their todos",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.Topic"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Topics"],
                "summary": "Create a topic",
                "parameters": [
                    {"description": "Topic", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateTopicRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.Topic"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/topics/{uuid}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Topics"],
                "summary": "Rename a topic",
                "parameters": [
                    {"type": "string", "description": "Topic uuid", "name": "uuid", "in": "path", "required": true},
                    {"description": "New name", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.RenameTopicRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Topic"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/todos": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Todos"],
                "summary": "List the todos of a topic",
                "parameters": [
                    {"type": "string", "description": "Topic uuid", "name": "topicId", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.Todo"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Todos"],
                "summary": "Create a root todo in a topic",
                "parameters": [
                    {"description": "Todo", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateTodoRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.Todo"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/todos/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Todos"],
                "summary": "Get a todo",
                "parameters": [
                    {"type": "string", "description": "Todo id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Todo"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Todos"],
                "summary": "Update content, priority, due date or status",
                "parameters": [
                    {"type": "string", "description": "Todo id", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateTodoRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Todo"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Todos"],
                "summary": "Delete a todo and all of its descendants",
                "parameters": [
                    {"type": "string", "description": "Todo id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.DeleteResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/todos/{id}/reparent": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Todos"],
                "summary": "Move a todo under another todo or to the root",
                "parameters": [
                    {"type": "string", "description": "Todo id", "name": "id", "in": "path", "required": true},
                    {"description": "New parent, null for root", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.ReparentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Todo"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.CreateTodoRequest": {
            "type": "object",
            "required": ["content", "topicId"],
            "properties": {
                "content": {"type": "string"},
                "dueDate": {"type": "string", "example": "2026-01-31"},
                "priority": {"type": "string", "enum": ["NONE", "P00", "P0", "P1", "P2", "P3"]},
                "topicId": {"type": "string"}
            }
        },
        "dto.CreateTopicRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {"name": {"type": "string"}}
        },
        "dto.DeleteResponse": {
            "type": "object",
            "properties": {
                "deleted": {"type": "array", "items": {"type": "string"}},
                "status": {"type": "string"}
            }
        },
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string", "enum": ["unauthorized", "validation", "not_found", "invalid_operation", "transaction", "dependency"]}
            }
        },
        "dto.RenameTopicRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {"name": {"type": "string"}}
        },
        "dto.ReparentRequest": {
            "type": "object",
            "properties": {"newParentId": {"type": "string", "x-nullable": true}}
        },
        "dto.Todo": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "createdAt": {"type": "string"},
                "dueDate": {"type": "string", "example": "2026-01-31"},
                "id": {"type": "string"},
                "ownerId": {"type": "string"},
                "parentId": {"type": "string", "x-nullable": true},
                "priority": {"type": "string", "enum": ["NONE", "P00", "P0", "P1", "P2", "P3"]},
                "status": {"type": "string", "enum": ["PENDING", "COMPLETED"]},
                "topicId": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "dto.Topic": {
            "type": "object",
            "properties": {
                "createdAt": {"type": "string"},
                "id": {"type": "string"},
                "name": {"type": "string"},
                "todos": {"type": "array", "items": {"$ref": "#/definitions/dto.Todo"}},
                "updatedAt": {"type": "string"},
                "uuid": {"type": "string"}
            }
        },
        "dto.UpdateTodoRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "dueDate": {"type": "string", "x-nullable": true, "example": "2026-01-31"},
                "priority": {"type": "string", "enum": ["NONE", "P00", "P0", "P1", "P2", "P3"]},
                "status": {"type": "string", "enum": ["PENDING", "COMPLETED"]}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Todo Workspace API",
	Description:      "Topics and hierarchical todos for a single signed-in user.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
