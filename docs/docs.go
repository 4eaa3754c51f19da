// Package docs registers the OpenAPI spec gin-swagger serves at
// /swagger/index.html. Hand-maintained alongside the @Summary/@Router
// annotations in internal/ingress/handler.go rather than produced by
// `swag init`, since this build never invokes the Go toolchain.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tourist Safety Assessment API",
        "description": "Hybrid rule-based and ML fusion safety-scoring pipeline for tourist GPS telemetry.",
        "version": "1.0"
    },
    "basePath": "/",
    "paths": {
        "/health": {
            "get": {
                "summary": "Liveness and store reachability",
                "tags": ["system"],
                "responses": {"200": {"description": "ok"}, "503": {"description": "store unreachable"}}
            }
        },
        "/registerTourist": {
            "post": {
                "summary": "Register a tourist",
                "tags": ["tourists"],
                "responses": {"200": {"description": "created"}, "400": {"description": "invalid request"}}
            }
        },
        "/sendLocation": {
            "post": {
                "summary": "Ingest a location update and trigger an assessment",
                "tags": ["assessment"],
                "responses": {"200": {"description": "assessment produced"}, "404": {"description": "unknown tourist"}, "409": {"description": "ingress at capacity"}}
            }
        },
        "/pressSOS": {
            "post": {
                "summary": "Raise an emergency SOS alert",
                "tags": ["assessment"],
                "responses": {"200": {"description": "sos alert raised"}, "404": {"description": "unknown tourist"}}
            }
        },
        "/fileEFIR": {
            "post": {
                "summary": "File a manual E-FIR alert",
                "tags": ["alerts"],
                "responses": {"200": {"description": "efir filed"}, "404": {"description": "unknown tourist"}}
            }
        },
        "/getAlerts": {
            "get": {
                "summary": "List alerts, filterable by tourist/status/severity/kind",
                "tags": ["alerts"],
                "responses": {"200": {"description": "paginated alert list"}}
            }
        },
        "/resolveAlert/{id}": {
            "put": {
                "summary": "Resolve an alert",
                "tags": ["alerts"],
                "responses": {"200": {"description": "resolved"}, "404": {"description": "unknown alert"}}
            }
        },
        "/tourists/{id}": {
            "get": {
                "summary": "Tourist detail with recent locations, alerts, and latest assessment",
                "tags": ["tourists"],
                "responses": {"200": {"description": "tourist detail"}, "404": {"description": "unknown tourist"}}
            }
        },
        "/ai/training/status": {
            "get": {
                "summary": "Training Scheduler state",
                "tags": ["training"],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "scheduler status"}, "401": {"description": "missing or invalid admin token"}}
            }
        },
        "/ai/data/stats": {
            "get": {
                "summary": "Store row counts and last-hour deltas",
                "tags": ["training"],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "data stats"}, "401": {"description": "missing or invalid admin token"}}
            }
        },
        "/ai/training/force": {
            "post": {
                "summary": "Request an immediate training tick",
                "tags": ["training"],
                "security": [{"BearerAuth": []}],
                "responses": {"202": {"description": "tick requested"}, "401": {"description": "missing or invalid admin token"}}
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

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Tourist Safety Assessment API",
	Description:      "Hybrid rule-based and ML fusion safety-scoring pipeline for tourist GPS telemetry.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
