// Package docs registers the gateway's OpenAPI document with swag.
// Regenerate with: swag init -g cmd/gateway/main.go -o docs
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
        "/auth/{role}/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"type": "string", "enum": ["user", "shop", "instructor", "service-provider", "admin"], "description": "Role domain", "name": "role", "in": "path", "required": true},
                    {"description": "Login credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Result"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.Result"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.Result"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/auth/{role}/logout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Logout",
                "parameters": [
                    {"type": "string", "description": "Role domain", "name": "role", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Result"}}
                }
            }
        },
        "/auth/{role}/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current principal",
                "parameters": [
                    {"type": "string", "description": "Role domain", "name": "role", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Result"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.Result"}}
                }
            }
        },
        "/auth/{role}/profile": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Update profile",
                "parameters": [
                    {"type": "string", "description": "Role domain", "name": "role", "in": "path", "required": true},
                    {"description": "Fields to change; anything else is ignored", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.ProfileUpdate"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Result"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.Result"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.Result"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/domain.Result"}}
                }
            }
        },
        "/api/proxy/{path}": {
            "get": {
                "tags": ["proxy"],
                "summary": "Proxy a request to the backend API",
                "description": "The target path is the wildcard segment or, failing that, the \"path\" query parameter.",
                "parameters": [
                    {"type": "string", "description": "Target API path when no wildcard segment is given", "name": "path", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.proxyError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.proxyError"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.proxyError"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/handler.proxyError"}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.readinessResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.readinessResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Principal": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string"},
                "permissions": {"type": "array", "items": {"type": "string"}},
                "avatar": {"type": "string"},
                "phone": {"type": "string"}
            }
        },
        "domain.ProfileUpdate": {
            "type": "object",
            "properties": {
                "firstName": {"type": "string", "maxLength": 64},
                "lastName": {"type": "string", "maxLength": 64},
                "name": {"type": "string", "maxLength": 128},
                "avatar": {"type": "string"}
            }
        },
        "domain.Result": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {"$ref": "#/definitions/domain.Principal"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.proxyError": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "details": {"type": "string"}
            }
        },
        "handler.dependencyStatus": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "handler.readinessResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "dependencies": {"type": "object", "additionalProperties": {"$ref": "#/definitions/handler.dependencyStatus"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Storefront Gateway API",
	Description:      "Session endpoints and backend proxy of the marketplace storefront.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
