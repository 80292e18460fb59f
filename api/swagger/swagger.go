package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Chat Calendar API",
        "description": "Chat-driven calendar: mutation reconciliation, store snapshots, remote sync and server-side events.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Health", "description": "Probes and statistics"},
        {"name": "Chat", "description": "Chat turns and mutation reconciliation"},
        {"name": "Store", "description": "Client event store snapshots, sync and export"},
        {"name": "Events", "description": "Authoritative server-side event list"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/HealthResponse"}}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "Ready", "schema": {"$ref": "#/definitions/HealthResponse"}},
                    "503": {"description": "First sync pending", "schema": {"$ref": "#/definitions/HealthResponse"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Health"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/stats": {
            "get": {
                "tags": ["Health"],
                "summary": "Service statistics",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/chat": {
            "post": {
                "tags": ["Chat"],
                "summary": "Interpret a chat message and apply the mutation",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChatRequest"}}
                ],
                "responses": {
                    "200": {"description": "Applied, or reported as an anomaly", "schema": {"$ref": "#/definitions/ChatResponse"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Interpreter unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Interpreter not configured", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/chat/apply": {
            "post": {
                "tags": ["Chat"],
                "summary": "Apply an already interpreted mutation result",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MutationResult"}}
                ],
                "responses": {
                    "200": {"description": "Applied, or reported as an anomaly", "schema": {"$ref": "#/definitions/ChatResponse"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/store": {
            "get": {
                "tags": ["Store"],
                "summary": "Current store snapshot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "since_revision", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/StoreSnapshot"}},
                    "304": {"description": "Caller already holds this revision"},
                    "400": {"description": "Invalid revision", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/store/upcoming": {
            "get": {
                "tags": ["Store"],
                "summary": "Upcoming active events",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/store/sync": {
            "get": {
                "tags": ["Store"],
                "summary": "Remote sync status",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SyncStatus"}}
                }
            }
        },
        "/api/v1/store/refresh": {
            "post": {
                "tags": ["Store"],
                "summary": "Request an on-demand remote refresh",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "202": {"description": "Queued or already pending", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Remote sync disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/store/clean": {
            "post": {
                "tags": ["Store"],
                "summary": "Permanently remove every soft-deleted event",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CleanResult"}}
                }
            }
        },
        "/api/v1/store/events/{id}/clean": {
            "post": {
                "tags": ["Store"],
                "summary": "Permanently remove one soft-deleted event",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/StoreSnapshot"}},
                    "404": {"description": "Unknown event", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Event is still active", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/store/export": {
            "get": {
                "tags": ["Store"],
                "summary": "Download the agenda",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf", "text/calendar"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "ics"]},
                    {"name": "include_deleted", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "Attachment"},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/events": {
            "get": {
                "tags": ["Events"],
                "summary": "List server-side events",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "include_deleted", "in": "query", "type": "boolean"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Events"],
                "summary": "Create an event",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Event"}},
                    "409": {"description": "Duplicate id", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/events/clean": {
            "post": {
                "tags": ["Events"],
                "summary": "Permanently remove every soft-deleted event",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CleanResult"}}
                }
            }
        },
        "/api/v1/events/{id}": {
            "get": {
                "tags": ["Events"],
                "summary": "Get an event",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Event"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Events"],
                "summary": "Soft delete an event",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/events/{id}/reschedule": {
            "post": {
                "tags": ["Events"],
                "summary": "Replace an event with a rescheduled copy",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Event"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Original already deleted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/events/{id}/clean": {
            "post": {
                "tags": ["Events"],
                "summary": "Permanently remove one soft-deleted event",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Removed"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Event is still active", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RescheduledFrom": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "start": {"type": "string", "format": "date-time"},
                "end": {"type": "string", "format": "date-time"}
            }
        },
        "Event": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "start": {"type": "string", "format": "date-time"},
                "end": {"type": "string", "format": "date-time"},
                "allDay": {"type": "boolean"},
                "description": {"type": "string"},
                "isDeleted": {"type": "boolean"},
                "rescheduledFrom": {"$ref": "#/definitions/RescheduledFrom"}
            }
        },
        "MutationEvent": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "start": {"type": "string", "format": "date-time"},
                "end": {"type": "string", "format": "date-time"},
                "allDay": {"type": "boolean"},
                "description": {"type": "string"},
                "originalStart": {"type": "string", "format": "date-time"},
                "originalEnd": {"type": "string", "format": "date-time"},
                "rescheduled_from": {"$ref": "#/definitions/RescheduledFrom"},
                "action": {"type": "string", "enum": ["create", "delete", "reschedule"]}
            }
        },
        "MutationResult": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "action": {"type": "string", "enum": ["create", "delete", "reschedule"]},
                "event": {"$ref": "#/definitions/MutationEvent"},
                "original_event_id": {"type": "string"}
            }
        },
        "ChatRequest": {
            "type": "object",
            "required": ["message"],
            "properties": {
                "message": {"type": "string"}
            }
        },
        "Outcome": {
            "type": "object",
            "properties": {
                "action": {"type": "string"},
                "tier": {"type": "string", "enum": ["none", "id", "exact_title_date", "partial_title_date", "original_event_id", "rescheduled_from_id", "fuzzy_title_date"]},
                "matched_ids": {"type": "array", "items": {"type": "string"}},
                "deleted_ids": {"type": "array", "items": {"type": "string"}},
                "appended_id": {"type": "string"},
                "rescheduled_from": {"$ref": "#/definitions/RescheduledFrom"}
            }
        },
        "Anomaly": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "detail": {"type": "string"}
            }
        },
        "ChatResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "action": {"type": "string"},
                "event": {"$ref": "#/definitions/Event"},
                "outcome": {"$ref": "#/definitions/Outcome"},
                "revision": {"type": "integer"},
                "anomaly": {"$ref": "#/definitions/Anomaly"}
            }
        },
        "StoreSnapshot": {
            "type": "object",
            "properties": {
                "revision": {"type": "integer"},
                "updated_at": {"type": "string", "format": "date-time"},
                "source": {"type": "string"},
                "events": {"type": "array", "items": {"$ref": "#/definitions/Event"}}
            }
        },
        "SyncStatus": {
            "type": "object",
            "properties": {
                "enabled": {"type": "boolean"},
                "last_attempt_at": {"type": "string", "format": "date-time"},
                "last_success_at": {"type": "string", "format": "date-time"},
                "last_error": {"type": "string"},
                "consecutive_failures": {"type": "integer"},
                "retryable": {"type": "boolean"},
                "last_event_count": {"type": "integer"}
            }
        },
        "HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "interpreter_configured": {"type": "boolean"},
                "store_revision": {"type": "integer"},
                "sync": {"$ref": "#/definitions/SyncStatus"}
            }
        },
        "CreateEventRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "start": {"type": "string", "format": "date-time"},
                "end": {"type": "string", "format": "date-time"},
                "allDay": {"type": "boolean"},
                "description": {"type": "string"}
            }
        },
        "CleanResult": {
            "type": "object",
            "properties": {
                "removed": {"type": "integer"},
                "revision": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
