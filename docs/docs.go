// Package docs holds the OpenAPI document served under /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "support@example.com"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/auth/login": {
            "post": {
                "description": "Verifies credentials, returns the access token in the Authorization header and sets the refresh cookie",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [
                    {
                        "description": "Login credentials",
                        "name": "credentials",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/model.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/api/auth/refresh": {
            "post": {
                "description": "Consumes the refresh cookie and issues a new access token and refresh cookie",
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Rotate tokens",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/api/auth/logout": {
            "post": {
                "description": "Revokes the refresh token if known and clears the refresh cookie. Always succeeds.",
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log out",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/api/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current identity",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/api/admin/ping": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Admin only ping",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.APIResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/model.APIResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "get the status of server and its storage dependencies",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Show the status of server",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "model.APIResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "message": {"type": "string"}
            }
        },
        "model.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
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
	Schemes:          []string{},
	Title:            "JWT Auth API",
	Description:      "Access and refresh token issuing with single use refresh rotation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
