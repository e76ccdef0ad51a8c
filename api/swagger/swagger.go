package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "StudyMate API",
        "description": "Session scheduling and conflict engine for the StudyMate tutoring marketplace.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "in": "header",
            "name": "Authorization"
        }
    },
    "tags": [
        {
            "name": "Availability",
            "description": "Weekly tutor availability windows"
        },
        {
            "name": "Time Off",
            "description": "Partial-day blocks and whole-day leave"
        },
        {
            "name": "Sessions",
            "description": "Session lifecycle and recurring group sessions"
        },
        {
            "name": "Attendance",
            "description": "Per-session attendance"
        },
        {
            "name": "Export",
            "description": "Schedule downloads"
        },
        {
            "name": "Metrics",
            "description": "Operational counters"
        }
    ],
    "paths": {
        "/tutors/me/availability": {
            "get": {
                "tags": [
                    "Availability"
                ],
                "summary": "List own availability windows",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "day_of_week",
                        "in": "query",
                        "type": "string",
                        "description": "MON..SUN"
                    },
                    {
                        "name": "time_zone",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "is_active",
                        "in": "query",
                        "type": "boolean"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Availability"
                ],
                "summary": "Create availability window",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateAvailabilityRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Scheduling conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/tutors/me/availability/{id}": {
            "patch": {
                "tags": [
                    "Availability"
                ],
                "summary": "Update availability window",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Availability ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdateAvailabilityRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Scheduling conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Availability"
                ],
                "summary": "Delete availability window",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Availability ID"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Scheduling conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/tutors/me/availability/{id}/toggle": {
            "patch": {
                "tags": [
                    "Availability"
                ],
                "summary": "Toggle availability window",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Availability ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Scheduling conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/tutors/me/time-off": {
            "get": {
                "tags": [
                    "Time Off"
                ],
                "summary": "List own time-off blocks",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "from_date",
                        "in": "query",
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "name": "to_date",
                        "in": "query",
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Time Off"
                ],
                "summary": "Create time-off block",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateTimeOffRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Scheduling conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/tutors/me/time-off/{id}": {
            "delete": {
                "tags": [
                    "Time Off"
                ],
                "summary": "Delete time-off block",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Time-off ID"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                }
            }
        },
        "/tutors/me/leave": {
            "get": {
                "tags": [
                    "Time Off"
                ],
                "summary": "List own leave",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "from_date",
                        "in": "query",
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "name": "to_date",
                        "in": "query",
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Time Off"
                ],
                "summary": "Create leave",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateLeaveRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Scheduling conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/tutors/me/leave/{id}": {
            "delete": {
                "tags": [
                    "Time Off"
                ],
                "summary": "Delete leave",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Leave ID"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                }
            }
        },
        "/tutors/me/schedule/export": {
            "get": {
                "tags": [
                    "Export"
                ],
                "summary": "Export own schedule",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "from_date",
                        "in": "query",
                        "type": "string",
                        "required": true,
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "name": "to_date",
                        "in": "query",
                        "type": "string",
                        "required": true,
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "description": "csv or pdf"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File",
                        "schema": {
                            "type": "file"
                        }
                    }
                },
                "produces": [
                    "text/csv",
                    "application/pdf"
                ]
            }
        },
        "/tutors/{id}/available-slots": {
            "get": {
                "tags": [
                    "Sessions"
                ],
                "summary": "Free start times for a tutor",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Tutor ID"
                    },
                    {
                        "name": "date",
                        "in": "query",
                        "type": "string",
                        "required": true,
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "name": "duration_min",
                        "in": "query",
                        "type": "integer",
                        "required": true
                    },
                    {
                        "name": "step_min",
                        "in": "query",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions": {
            "post": {
                "tags": [
                    "Sessions"
                ],
                "summary": "Request or book a private session",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateSessionRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Scheduling conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/upcoming": {
            "get": {
                "tags": [
                    "Sessions"
                ],
                "summary": "Upcoming sessions of the caller",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/approve": {
            "post": {
                "tags": [
                    "Sessions"
                ],
                "summary": "Approve a pending request",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Session ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Scheduling conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/reject": {
            "post": {
                "tags": [
                    "Sessions"
                ],
                "summary": "Reject a pending request",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Session ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Scheduling conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/cancel": {
            "post": {
                "tags": [
                    "Sessions"
                ],
                "summary": "Cancel a session",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Session ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Scheduling conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/complete": {
            "post": {
                "tags": [
                    "Sessions"
                ],
                "summary": "Mark a session completed",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Session ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Scheduling conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/reschedule": {
            "patch": {
                "tags": [
                    "Sessions"
                ],
                "summary": "Reschedule a session",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Session ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RescheduleSessionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Scheduling conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/join": {
            "get": {
                "tags": [
                    "Sessions"
                ],
                "summary": "Meeting join configuration",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Session ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/attendance": {
            "get": {
                "tags": [
                    "Attendance"
                ],
                "summary": "List attendance",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Session ID"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Attendance"
                ],
                "summary": "Mark attendance",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Session ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/MarkAttendanceRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Scheduling conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/attendance/all-present": {
            "post": {
                "tags": [
                    "Attendance"
                ],
                "summary": "Mark every enrolled student present",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Session ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/attendance/{id}/toggle": {
            "patch": {
                "tags": [
                    "Attendance"
                ],
                "summary": "Flip an attendance record",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Attendance ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/classes/{id}/sessions": {
            "get": {
                "tags": [
                    "Sessions"
                ],
                "summary": "List class sessions",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Class ID"
                    },
                    {
                        "name": "status",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "session_type",
                        "in": "query",
                        "type": "string",
                        "description": "REGULAR, EXTRA or DBOUT"
                    },
                    {
                        "name": "from_date",
                        "in": "query",
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "name": "to_date",
                        "in": "query",
                        "type": "string",
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/classes/{id}/sessions/extra": {
            "post": {
                "tags": [
                    "Sessions"
                ],
                "summary": "Create an extra group session",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Class ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateAdHocSessionRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Scheduling conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/classes/{id}/sessions/dbout": {
            "post": {
                "tags": [
                    "Sessions"
                ],
                "summary": "Create a doubt-clearing group session",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Class ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateAdHocSessionRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Scheduling conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": [
                    "Metrics"
                ],
                "summary": "Scheduling metrics snapshot",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "CreateAvailabilityRequest": {
            "type": "object",
            "properties": {
                "day_of_week": {
                    "type": "string",
                    "enum": [
                        "MON",
                        "TUE",
                        "WED",
                        "THU",
                        "FRI",
                        "SAT",
                        "SUN"
                    ]
                },
                "start_time": {
                    "type": "string",
                    "example": "09:30"
                },
                "end_time": {
                    "type": "string",
                    "example": "09:30"
                },
                "time_zone": {
                    "type": "string",
                    "example": "Asia/Jakarta"
                }
            },
            "required": [
                "day_of_week",
                "start_time",
                "end_time",
                "time_zone"
            ]
        },
        "UpdateAvailabilityRequest": {
            "type": "object",
            "properties": {
                "day_of_week": {
                    "type": "string"
                },
                "start_time": {
                    "type": "string",
                    "example": "09:30"
                },
                "end_time": {
                    "type": "string",
                    "example": "09:30"
                },
                "time_zone": {
                    "type": "string"
                },
                "is_active": {
                    "type": "boolean"
                }
            }
        },
        "CreateTimeOffRequest": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string",
                    "example": "2025-01-06"
                },
                "start_time": {
                    "type": "string",
                    "example": "09:30"
                },
                "end_time": {
                    "type": "string",
                    "example": "09:30"
                },
                "reason": {
                    "type": "string"
                }
            },
            "required": [
                "date",
                "start_time",
                "end_time"
            ]
        },
        "CreateLeaveRequest": {
            "type": "object",
            "properties": {
                "start_date": {
                    "type": "string",
                    "example": "2025-01-06"
                },
                "end_date": {
                    "type": "string",
                    "example": "2025-01-06"
                },
                "reason": {
                    "type": "string"
                }
            },
            "required": [
                "start_date",
                "end_date"
            ]
        },
        "CreateSessionRequest": {
            "type": "object",
            "properties": {
                "class_id": {
                    "type": "string"
                },
                "date": {
                    "type": "string",
                    "example": "2025-01-06"
                },
                "start_time": {
                    "type": "string",
                    "example": "09:30"
                },
                "duration_min": {
                    "type": "integer",
                    "minimum": 15,
                    "maximum": 480
                },
                "student_id": {
                    "type": "string",
                    "description": "Required when a tutor books on behalf of a student"
                }
            },
            "required": [
                "class_id",
                "date",
                "start_time",
                "duration_min"
            ]
        },
        "RescheduleSessionRequest": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string",
                    "example": "2025-01-06"
                },
                "start_time": {
                    "type": "string",
                    "example": "09:30"
                },
                "duration_min": {
                    "type": "integer"
                }
            },
            "required": [
                "date",
                "start_time"
            ]
        },
        "CreateAdHocSessionRequest": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string",
                    "example": "2025-01-06"
                },
                "start_time": {
                    "type": "string",
                    "example": "09:30"
                },
                "duration_min": {
                    "type": "integer"
                }
            },
            "required": [
                "date",
                "start_time",
                "duration_min"
            ]
        },
        "StudentAttendance": {
            "type": "object",
            "properties": {
                "student_id": {
                    "type": "string"
                },
                "status": {
                    "type": "string",
                    "enum": [
                        "PRESENT",
                        "ABSENT"
                    ]
                }
            },
            "required": [
                "student_id",
                "status"
            ]
        },
        "MarkAttendanceRequest": {
            "type": "object",
            "properties": {
                "attendance": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/StudentAttendance"
                    }
                }
            },
            "required": [
                "attendance"
            ]
        },
        "Session": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "class_id": {
                    "type": "string"
                },
                "tutor_id": {
                    "type": "string"
                },
                "student_id": {
                    "type": "string"
                },
                "date": {
                    "type": "string"
                },
                "start_time": {
                    "type": "string",
                    "example": "09:30"
                },
                "duration_min": {
                    "type": "integer"
                },
                "session_type": {
                    "type": "string",
                    "enum": [
                        "REGULAR",
                        "EXTRA",
                        "DBOUT"
                    ]
                },
                "status": {
                    "type": "string",
                    "enum": [
                        "PENDING_TUTOR_APPROVAL",
                        "SCHEDULED",
                        "COMPLETED",
                        "CANCELLED_BY_TUTOR",
                        "CANCELLED_BY_STUDENT"
                    ]
                },
                "created_by": {
                    "type": "string",
                    "enum": [
                        "SYSTEM",
                        "TUTOR",
                        "STUDENT"
                    ]
                },
                "meeting_link": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string"
                },
                "updated_at": {
                    "type": "string"
                }
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "limit": {
                    "type": "integer"
                },
                "total": {
                    "type": "integer"
                },
                "totalPages": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
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
