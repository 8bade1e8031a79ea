package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "EDT API",
        "description": "Weekly timetable negotiation service",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Collaborator login and profile"},
        {"name": "Timetable", "description": "Official and draft timetable reads and commands"},
        {"name": "ChangeRequests", "description": "Teacher proposals and admin decisions"},
        {"name": "Publish", "description": "Cycle promotion"},
        {"name": "Reference", "description": "Institution grid, catalog and workload"},
        {"name": "Generator", "description": "Best-effort bulk placement"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate a collaborator",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Return the authenticated collaborator's profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token"}
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Change the caller's password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangePasswordRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Current password does not match"}
                }
            }
        },
        "/timetable": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Read the official timetable",
                "parameters": [
                    {"name": "groupe", "in": "query", "type": "string", "description": "Filter to one group; fusion ids expand to their members"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/next-timetable": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Read the draft timetable",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/commands": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Apply a version-guarded command",
                "parameters": [
                    {"name": "scope", "in": "query", "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CommandRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Version mismatch or constraint conflict"}
                }
            }
        },
        "/timetable/sessions": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Insert a session directly",
                "parameters": [
                    {"name": "scope", "in": "query", "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Session"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rooms/available": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List free and occupied rooms for one slot",
                "parameters": [
                    {"name": "jour", "in": "query", "required": true, "type": "string"},
                    {"name": "creneau", "in": "query", "required": true, "type": "integer"},
                    {"name": "scope", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teacher/timetable": {
            "get": {
                "tags": ["ChangeRequests"],
                "summary": "Read the caller's draft sessions with the pending overlay",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teacher/changes": {
            "get": {
                "tags": ["ChangeRequests"],
                "summary": "List the caller's proposals",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["ChangeRequests"],
                "summary": "Submit a change proposal",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitChangeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teacher/changes/{id}": {
            "delete": {
                "tags": ["ChangeRequests"],
                "summary": "Cancel an own pending proposal",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/admin/changes": {
            "get": {
                "tags": ["ChangeRequests"],
                "summary": "List proposals across all teachers",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/timetable/virtual": {
            "get": {
                "tags": ["ChangeRequests"],
                "summary": "Read the draft with every pending proposal overlaid",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/changes/{id}/simulate": {
            "post": {
                "tags": ["ChangeRequests"],
                "summary": "Dry-run a pending proposal",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Constraint conflict"}
                }
            }
        },
        "/admin/changes/{id}/approve": {
            "post": {
                "tags": ["ChangeRequests"],
                "summary": "Approve a pending proposal",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Constraint conflict, proposal auto-rejected"}
                }
            }
        },
        "/admin/changes/{id}/reject": {
            "post": {
                "tags": ["ChangeRequests"],
                "summary": "Reject a pending proposal",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/DecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/publish": {
            "post": {
                "tags": ["Publish"],
                "summary": "Promote the draft to official and roll the cycle forward",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/PublishRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/config": {
            "get": {
                "tags": ["Reference"],
                "summary": "Read the institution grid",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalog": {
            "get": {
                "tags": ["Reference"],
                "summary": "Read the reference catalog",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers": {
            "get": {
                "tags": ["Reference"],
                "summary": "List the known teachers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/config": {
            "put": {
                "tags": ["Reference"],
                "summary": "Replace the institution grid",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Incomplete grid"}
                }
            }
        },
        "/admin/catalog": {
            "put": {
                "tags": ["Reference"],
                "summary": "Replace the reference catalog",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/seances": {
            "get": {
                "tags": ["Reference"],
                "summary": "Read the planned workload rows",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/generate/run": {
            "post": {
                "tags": ["Generator"],
                "summary": "Generate a timetable from the planned workload",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/GenerateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Session": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "formateur": {"type": "string"},
                "groupe": {"type": "string"},
                "module": {"type": "string"},
                "jour": {"type": "string"},
                "creneau": {"type": "integer"},
                "salle": {"type": "string"}
            },
            "required": ["formateur", "groupe", "module", "jour", "creneau", "salle"]
        },
        "CommandRequest": {
            "type": "object",
            "properties": {
                "commandId": {"type": "string"},
                "expectedVersion": {"type": "integer"},
                "type": {"type": "string", "enum": ["MOVE_SESSION", "DELETE_SESSION", "INSERT_SESSION"]},
                "payload": {"type": "object"}
            },
            "required": ["commandId", "expectedVersion", "type"]
        },
        "SubmitChangeRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["MOVE", "CHANGE_ROOM", "DELETE", "INSERT"]},
                "sessionId": {"type": "string"},
                "newData": {"type": "object"}
            },
            "required": ["type"]
        },
        "DecisionRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "PublishRequest": {
            "type": "object",
            "properties": {
                "week_start": {"type": "string", "example": "2025-01-20", "description": "Defaults to the draft's own week when omitted"}
            }
        },
        "GenerateRequest": {
            "type": "object",
            "properties": {
                "scope": {"type": "string"},
                "seed": {"type": "integer"},
                "apply": {"type": "boolean"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["username", "password"]
        },
        "ChangePasswordRequest": {
            "type": "object",
            "properties": {
                "old_password": {"type": "string"},
                "new_password": {"type": "string"}
            },
            "required": ["old_password", "new_password"]
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
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
