package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "HMS Core API",
        "description": "Hostel management core: rooms, allocations, attendance",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, refresh, logout"},
        {"name": "Residents", "description": "Resident roster management"},
        {"name": "Rooms", "description": "Rooms with derived occupancy"},
        {"name": "Allocations", "description": "Room allocation lifecycle"},
        {"name": "Attendance", "description": "Sessions and record marking"},
        {"name": "Leaves", "description": "Leave requests and decisions"},
        {"name": "Search", "description": "Cross-entity lookup"},
        {"name": "Dashboard", "description": "Operational overview"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "Token pair issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Rotate refresh token",
                "responses": {
                    "200": {"description": "New token pair"},
                    "401": {"description": "Unknown or revoked token"}
                }
            }
        },
        "/residents": {
            "get": {
                "tags": ["Residents"],
                "summary": "List residents",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Residents"],
                "summary": "Create resident",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/residents/unallocated": {
            "get": {
                "tags": ["Residents"],
                "summary": "Active residents without a room",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/rooms": {
            "get": {
                "tags": ["Rooms"],
                "summary": "List rooms with derived occupancy",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Rooms"],
                "summary": "Create room",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/allocations": {
            "get": {
                "tags": ["Allocations"],
                "summary": "List allocations",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Allocations"],
                "summary": "Place resident into a room",
                "responses": {
                    "201": {"description": "Allocated"},
                    "409": {"description": "Capacity exceeded or already allocated"}
                }
            }
        },
        "/allocations/transfer": {
            "post": {
                "tags": ["Allocations"],
                "summary": "Move resident to another room",
                "responses": {
                    "200": {"description": "Transferred"},
                    "409": {"description": "Capacity exceeded"}
                }
            }
        },
        "/allocations/end": {
            "post": {
                "tags": ["Allocations"],
                "summary": "End active allocation",
                "responses": {"200": {"description": "Ended"}}
            }
        },
        "/attendance/sessions": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Resolve or create session (idempotent)",
                "responses": {"200": {"description": "Session"}}
            }
        },
        "/attendance/sessions/{id}/records": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Session records with summary",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Attendance"],
                "summary": "Bulk mark records (upsert)",
                "responses": {"204": {"description": "Marked"}}
            }
        },
        "/leaves": {
            "get": {
                "tags": ["Leaves"],
                "summary": "List leave requests",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Leaves"],
                "summary": "File a leave request",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/search": {
            "get": {
                "tags": ["Search"],
                "summary": "Search residents and rooms",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Occupancy and attendance overview",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
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
