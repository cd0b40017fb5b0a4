package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Pet Calendar API",
        "description": "Pet care calendar: recurring events, scoped edits and calendar grids.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Events", "description": "Occurrences, series and scoped mutations"},
        {"name": "Calendar", "description": "Materialized grids and agenda exports"},
        {"name": "Pets", "description": "Pets referenced by events"}
    ],
    "paths": {
        "/events": {
            "get": {
                "tags": ["Events"],
                "summary": "List occurrences in a window",
                "parameters": [
                    {"name": "start_date", "in": "query", "type": "string", "required": true, "description": "RFC 3339 or YYYY-MM-DD"},
                    {"name": "end_date", "in": "query", "type": "string", "required": true, "description": "RFC 3339 or YYYY-MM-DD"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing or invalid bounds", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Events"],
                "summary": "Create an event or series",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/stream": {
            "get": {
                "tags": ["Events"],
                "summary": "Websocket feed of events.changed notices",
                "responses": {
                    "101": {"description": "Switching protocols"}
                }
            }
        },
        "/events/{id}": {
            "get": {
                "tags": ["Events"],
                "summary": "Get an occurrence or stored event",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Events"],
                "summary": "Update one occurrence or a whole series",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "scope", "in": "query", "type": "string", "enum": ["single", "series"]},
                    {"name": "date", "in": "query", "type": "string", "description": "Occurrence date for single-scope edits"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EventRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Events"],
                "summary": "Delete one occurrence or a whole series",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "scope", "in": "query", "type": "string", "enum": ["single", "series"]},
                    {"name": "date", "in": "query", "type": "string", "description": "Occurrence date for single-scope deletes"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Not a recurring event", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/{id}/done": {
            "patch": {
                "tags": ["Events"],
                "summary": "Set the completion flag of one occurrence",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DoneRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar/view": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Calendar grid for a day, week or month",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string"},
                    {"name": "granularity", "in": "query", "type": "string", "enum": ["day", "week", "month"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar/export": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Download the agenda of a window",
                "produces": ["text/csv", "application/pdf", "text/calendar"],
                "parameters": [
                    {"name": "date", "in": "query", "type": "string"},
                    {"name": "granularity", "in": "query", "type": "string", "enum": ["day", "week", "month"]},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "ics"]}
                ],
                "responses": {
                    "200": {"description": "Rendered file", "schema": {"type": "file"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar/export/share": {
            "post": {
                "tags": ["Calendar"],
                "summary": "Store an agenda export behind a signed download link",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string"},
                    {"name": "granularity", "in": "query", "type": "string", "enum": ["day", "week", "month"]},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "ics"]}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Sharing not configured", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar/shared/{token}": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Download a shared agenda export",
                "produces": ["text/csv", "application/pdf", "text/calendar"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Stored file", "schema": {"type": "file"}},
                    "404": {"description": "Unknown or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pets": {
            "get": {
                "tags": ["Pets"],
                "summary": "List pets",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Pets"],
                "summary": "Create a pet",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePetRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "summary": "JSON digest of the Prometheus collectors",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "RecurrenceRequest": {
            "type": "object",
            "required": ["frequency_type"],
            "properties": {
                "frequency_type": {"type": "string", "enum": ["daily", "weekly", "monthly", "yearly"]},
                "frequency": {"type": "integer", "minimum": 1},
                "days": {"type": "array", "items": {"type": "string", "enum": ["MO", "TU", "WE", "TH", "FR", "SA", "SU"]}},
                "end_date": {"type": "string", "format": "date-time"},
                "occurrences": {"type": "integer", "minimum": 1}
            }
        },
        "EventRequest": {
            "type": "object",
            "required": ["type", "title", "start_date"],
            "properties": {
                "type": {"type": "string", "enum": ["medical", "feeding", "appointment", "training", "social", "other"]},
                "title": {"type": "string"},
                "start_date": {"type": "string", "format": "date-time"},
                "end_date": {"type": "string", "format": "date-time"},
                "is_recurring": {"type": "boolean"},
                "recurrence": {"$ref": "#/definitions/RecurrenceRequest"},
                "pet_ids": {"type": "array", "items": {"type": "string"}},
                "notes": {"type": "string"},
                "is_done": {"type": "boolean"}
            }
        },
        "DoneRequest": {
            "type": "object",
            "properties": {
                "is_done": {"type": "boolean"}
            }
        },
        "CreatePetRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "species": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
