package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tutor Match API",
        "description": "Tutor ranking, coordinator suggestion inbox and manual override workflow.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [
        {"BearerAuth": []}
    ],
    "tags": [
        {"name": "Matching", "description": "Tutor scoring and ranking"},
        {"name": "Suggestions", "description": "Coordinator suggestion inbox and context handoff"},
        {"name": "Overrides", "description": "Manual tutor assignments"}
    ],
    "paths": {
        "/matching/rank": {
            "post": {
                "tags": ["Matching"],
                "summary": "Rank tutors for a tutoring request",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/RankRequest"}}
                ],
                "responses": {
                    "200": {"description": "Ranking", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/matching/pool/refresh": {
            "post": {
                "tags": ["Matching"],
                "summary": "Drop the cached tutor pool",
                "responses": {
                    "202": {"description": "Refreshed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/suggestions": {
            "get": {
                "tags": ["Suggestions"],
                "summary": "List suggestions",
                "parameters": [
                    {"in": "query", "name": "status", "type": "string", "description": "Comma separated NEW, REVIEWED, REJECTED"},
                    {"in": "query", "name": "search", "type": "string", "description": "Student name or course substring"},
                    {"in": "query", "name": "limit", "type": "integer"},
                    {"in": "query", "name": "offset", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Suggestions", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Suggestions"],
                "summary": "Generate a suggestion",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/RankRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/suggestions/batch": {
            "post": {
                "tags": ["Suggestions"],
                "summary": "Queue suggestion generation for many requests",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/BatchSuggestionRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Queue unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/suggestions/{id}": {
            "get": {
                "tags": ["Suggestions"],
                "summary": "Get suggestion detail",
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Suggestion", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/suggestions/{id}/transition": {
            "post": {
                "tags": ["Suggestions"],
                "summary": "Mark a suggestion reviewed or rejected",
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/TransitionSuggestionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already handled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/suggestions/{id}/handoff": {
            "post": {
                "tags": ["Suggestions"],
                "summary": "Issue a context token for the override screen",
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/handoff/{token}": {
            "get": {
                "tags": ["Suggestions"],
                "summary": "Read back a context token; data is null when the token is unusable",
                "parameters": [
                    {"in": "path", "name": "token", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Snapshot or null", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/overrides": {
            "get": {
                "tags": ["Overrides"],
                "summary": "List manual assignments",
                "parameters": [
                    {"in": "query", "name": "studentId", "type": "string"},
                    {"in": "query", "name": "tutorId", "type": "string"},
                    {"in": "query", "name": "actor", "type": "string"},
                    {"in": "query", "name": "suggestionId", "type": "string"},
                    {"in": "query", "name": "limit", "type": "integer"},
                    {"in": "query", "name": "offset", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Assignments", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Overrides"],
                "summary": "Record a manual tutor assignment",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CreateOverrideRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created; data.record holds the assignment", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/overrides/{id}": {
            "get": {
                "tags": ["Overrides"],
                "summary": "Get manual assignment detail",
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Assignment", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "TutoringRequest": {
            "type": "object",
            "required": ["studentId", "course"],
            "properties": {
                "studentId": {"type": "string"},
                "studentName": {"type": "string"},
                "course": {"type": "string"},
                "note": {"type": "string"},
                "preferredTime": {"type": "string"}
            }
        },
        "AvailabilitySlot": {
            "type": "object",
            "properties": {
                "day": {"type": "string"},
                "time": {"type": "string"},
                "mode": {"type": "string", "enum": ["online", "offline"]}
            }
        },
        "Tutor": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "expertise": {"type": "array", "items": {"type": "string"}},
                "slots": {"type": "array", "items": {"$ref": "#/definitions/AvailabilitySlot"}},
                "workload": {
                    "type": "object",
                    "properties": {
                        "current": {"type": "integer"},
                        "max": {"type": "integer"}
                    }
                },
                "status": {"type": "string"}
            }
        },
        "RankRequest": {
            "type": "object",
            "properties": {
                "request": {"$ref": "#/definitions/TutoringRequest"},
                "tutors": {"type": "array", "items": {"$ref": "#/definitions/Tutor"}}
            }
        },
        "BatchSuggestionRequest": {
            "type": "object",
            "properties": {
                "requests": {"type": "array", "items": {"$ref": "#/definitions/TutoringRequest"}}
            }
        },
        "TransitionSuggestionRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["REVIEWED", "REJECTED"]},
                "note": {"type": "string"}
            }
        },
        "CreateOverrideRequest": {
            "type": "object",
            "required": ["studentId", "tutorId", "reason"],
            "properties": {
                "studentId": {"type": "string"},
                "tutorId": {"type": "string"},
                "course": {"type": "string"},
                "reason": {"type": "string"},
                "slot": {"type": "string"},
                "suggestionId": {"type": "string"},
                "suggestionContext": {"description": "Handoff token string or inline suggestion object"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "limit": {"type": "integer"},
                "offset": {"type": "integer"},
                "count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "field": {"type": "string"}
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
