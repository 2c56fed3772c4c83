// Package docs registers the OpenAPI description served under /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/shorten": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Links"],
                "summary": "List own links",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.URLRecord"}}},
                    "401": {"description": "Authentication required", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Links"],
                "summary": "Create a short link",
                "parameters": [
                    {"description": "Link creation request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.CreateLinkRequest"}}
                ],
                "responses": {
                    "201": {"description": "Link created successfully", "schema": {"$ref": "#/definitions/http.CreateLinkResponse"}},
                    "400": {"description": "Invalid request data", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "401": {"description": "Authentication required", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "409": {"description": "Alias already exists", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/shorten/{alias}": {
            "get": {
                "tags": ["Redirect"],
                "summary": "Redirect to the original URL",
                "parameters": [
                    {"type": "string", "description": "Short URL alias", "name": "alias", "in": "path", "required": true}
                ],
                "responses": {
                    "302": {"description": "Redirect to the original URL"},
                    "404": {"description": "Alias not found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "503": {"description": "Store temporarily unavailable", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/home": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Links"],
                "summary": "Welcome message",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.HomeResponse"}},
                    "401": {"description": "Authentication required", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/analytics/{alias}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Analytics"],
                "summary": "Analytics of a short URL",
                "parameters": [
                    {"type": "string", "description": "Short URL alias", "name": "alias", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.AliasReport"}},
                    "404": {"description": "Alias not found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/analytics/topic/{topic}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Analytics"],
                "summary": "Analytics of a topic",
                "parameters": [
                    {"type": "string", "description": "Topic", "name": "topic", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.TopicReport"}}
                }
            }
        },
        "/api/overallAnalytics": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Analytics"],
                "summary": "Overall analytics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.OverallReport"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness with dependency status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/http.HealthResponse"}}
                }
            }
        },
        "/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/metrics": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Service metrics",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "definitions": {
        "domain.ClickEntry": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "clickCount": {"type": "integer"}
            }
        },
        "domain.OsStats": {
            "type": "object",
            "properties": {
                "_id": {"type": "integer"},
                "osName": {"type": "string"},
                "uniqueClicks": {"type": "integer"},
                "uniqueUsers": {"type": "integer"}
            }
        },
        "domain.DeviceStats": {
            "type": "object",
            "properties": {
                "_id": {"type": "integer"},
                "deviceName": {"type": "string"},
                "uniqueClicks": {"type": "integer"},
                "uniqueUsers": {"type": "integer"}
            }
        },
        "domain.URLRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "fullUrl": {"type": "string"},
                "alias": {"type": "string"},
                "shortUrl": {"type": "string"},
                "topic": {"type": "string"},
                "ownerId": {"type": "integer"},
                "creatorIp": {"type": "string"},
                "totalClicks": {"type": "integer"},
                "uniqueUsers": {"type": "integer"},
                "createdAt": {"type": "string"},
                "clicksByDate": {"type": "array", "items": {"$ref": "#/definitions/domain.ClickEntry"}},
                "osAnalytics": {"$ref": "#/definitions/domain.OsStats"},
                "deviceAnalytics": {"$ref": "#/definitions/domain.DeviceStats"}
            }
        },
        "http.CreateLinkRequest": {
            "type": "object",
            "properties": {
                "fullUrl": {"type": "string", "example": "https://example.com/some/long/path"},
                "customAlias": {"type": "string", "example": "ex1"},
                "topic": {"type": "string", "example": "news"}
            }
        },
        "http.CreateLinkResponse": {
            "type": "object",
            "properties": {
                "shortUrl": {"type": "string", "example": "http://localhost:3000/api/shorten/ex1"},
                "createdAt": {"type": "string"}
            }
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "http.HomeResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "http.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "timestamp": {"type": "string"},
                "version": {"type": "string"},
                "database_status": {"type": "string"},
                "cache_status": {"type": "string"},
                "uptime": {"type": "string"}
            }
        },
        "service.AliasReport": {
            "type": "object",
            "properties": {
                "totalClicks": {"type": "integer"},
                "uniqueUsers": {"type": "integer"},
                "clicksByDate": {"type": "array", "items": {"$ref": "#/definitions/domain.ClickEntry"}},
                "osType": {"$ref": "#/definitions/domain.OsStats"},
                "deviceType": {"$ref": "#/definitions/domain.DeviceStats"}
            }
        },
        "service.TopicURL": {
            "type": "object",
            "properties": {
                "shortUrl": {"type": "string"},
                "totalClicks": {"type": "integer"},
                "uniqueUsers": {"type": "integer"}
            }
        },
        "service.TopicReport": {
            "type": "object",
            "properties": {
                "totalClicks": {"type": "integer"},
                "uniqueUsers": {"type": "integer"},
                "clicksByDate": {"type": "array", "items": {"type": "array", "items": {"$ref": "#/definitions/domain.ClickEntry"}}},
                "urls": {"type": "array", "items": {"$ref": "#/definitions/service.TopicURL"}}
            }
        },
        "service.OverallReport": {
            "type": "object",
            "properties": {
                "totalUrls": {"type": "integer"},
                "totalClicks": {"type": "integer"},
                "uniqueUsers": {"type": "integer"},
                "clicksByDate": {"type": "array", "items": {"type": "array", "items": {"$ref": "#/definitions/domain.ClickEntry"}}},
                "osType": {"type": "array", "items": {"$ref": "#/definitions/domain.OsStats"}},
                "deviceType": {"type": "array", "items": {"$ref": "#/definitions/domain.DeviceStats"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT Authorization header. Format: \"Bearer {token}\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:3000",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Shortlytics API",
	Description:      "URL shortener with click analytics.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
