package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Unit Gateway",
        "description": "Unit configuration, activity grading and unit closure in front of the school REST backend",
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
            "name": "Assignments",
            "description": "Course assignment catalog"
        },
        {
            "name": "Units",
            "description": "Unit point split and activation"
        },
        {
            "name": "Grading",
            "description": "Activity grading sheet"
        },
        {
            "name": "UnitClosure",
            "description": "Bulk unit closure and teacher notification"
        }
    ],
    "paths": {
        "/assignments": {
            "get": {
                "tags": [
                    "Assignments"
                ],
                "summary": "List course assignments",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "year",
                        "in": "query",
                        "type": "integer",
                        "required": false
                    },
                    {
                        "name": "teacherId",
                        "in": "query",
                        "type": "integer",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "502": {
                        "description": "School backend unreachable",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/assignments/{id}/units": {
            "get": {
                "tags": [
                    "Units"
                ],
                "summary": "List the four units of an assignment",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "integer",
                        "required": true
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
        "/points/complement": {
            "get": {
                "tags": [
                    "Units"
                ],
                "summary": "Counterpart completing a 100 point split",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "value",
                        "in": "query",
                        "type": "integer",
                        "required": true
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
                        "description": "Out of range",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/units/{id}/points": {
            "put": {
                "tags": [
                    "Units"
                ],
                "summary": "Change a unit's zone/final point split",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "integer",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdateUnitPointsRequest"
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
                        "description": "Invalid split",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Unit locked",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/units/{id}/activate": {
            "post": {
                "tags": [
                    "Units"
                ],
                "summary": "Activate a unit",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "integer",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Configuration mismatch",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/grading/units/{unitId}/activities/{activityId}": {
            "get": {
                "tags": [
                    "Grading"
                ],
                "summary": "Load the grading sheet of an activity",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "unitId",
                        "in": "path",
                        "type": "integer",
                        "required": true
                    },
                    {
                        "name": "activityId",
                        "in": "path",
                        "type": "integer",
                        "required": true
                    },
                    {
                        "name": "assignmentId",
                        "in": "query",
                        "type": "integer",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Unknown unit or activity",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/grading/units/{unitId}/activities/{activityId}/preview": {
            "post": {
                "tags": [
                    "Grading"
                ],
                "summary": "Derive totals for unsaved drafts",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "unitId",
                        "in": "path",
                        "type": "integer",
                        "required": true
                    },
                    {
                        "name": "activityId",
                        "in": "path",
                        "type": "integer",
                        "required": true
                    },
                    {
                        "name": "assignmentId",
                        "in": "query",
                        "type": "integer",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/GradeBatchRequest"
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
                        "description": "Invalid grades",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/grading/units/{unitId}/activities/{activityId}/grades": {
            "post": {
                "tags": [
                    "Grading"
                ],
                "summary": "Save a batch of grades",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "unitId",
                        "in": "path",
                        "type": "integer",
                        "required": true
                    },
                    {
                        "name": "activityId",
                        "in": "path",
                        "type": "integer",
                        "required": true
                    },
                    {
                        "name": "assignmentId",
                        "in": "query",
                        "type": "integer",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/GradeBatchRequest"
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
                        "description": "Invalid grades",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Unit closed or zones incomplete",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/unit-closure/{number}": {
            "get": {
                "tags": [
                    "UnitClosure"
                ],
                "summary": "Readiness of every course for a unit number",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "number",
                        "in": "path",
                        "type": "integer",
                        "required": true,
                        "description": "Unit number (1-4)"
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
        "/unit-closure/{number}/recompute": {
            "post": {
                "tags": [
                    "UnitClosure"
                ],
                "summary": "Recompute readiness and reload it",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "number",
                        "in": "path",
                        "type": "integer",
                        "required": true,
                        "description": "Unit number (1-4)"
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
        "/unit-closure/{number}/close/confirmation": {
            "post": {
                "tags": [
                    "UnitClosure"
                ],
                "summary": "Issue a close confirmation",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "number",
                        "in": "path",
                        "type": "integer",
                        "required": true,
                        "description": "Unit number (1-4)"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "Nothing to close",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/unit-closure/{number}/close": {
            "post": {
                "tags": [
                    "UnitClosure"
                ],
                "summary": "Close every ready course",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "number",
                        "in": "path",
                        "type": "integer",
                        "required": true,
                        "description": "Unit number (1-4)"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ConfirmRequest"
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
                    "409": {
                        "description": "Counts changed since confirmation",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "428": {
                        "description": "Confirmation required",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/unit-closure/{number}/notifications/confirmation": {
            "post": {
                "tags": [
                    "UnitClosure"
                ],
                "summary": "Issue a notify confirmation",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "number",
                        "in": "path",
                        "type": "integer",
                        "required": true,
                        "description": "Unit number (1-4)"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "Nothing to notify",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/unit-closure/{number}/notifications": {
            "post": {
                "tags": [
                    "UnitClosure"
                ],
                "summary": "Notify teachers of unready courses",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "number",
                        "in": "path",
                        "type": "integer",
                        "required": true,
                        "description": "Unit number (1-4)"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ConfirmRequest"
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
                    "409": {
                        "description": "Counts changed since confirmation",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "428": {
                        "description": "Confirmation required",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/unit-closure/{number}/export": {
            "get": {
                "tags": [
                    "UnitClosure"
                ],
                "summary": "Download the readiness report",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "text/csv",
                    "application/pdf"
                ],
                "parameters": [
                    {
                        "name": "number",
                        "in": "path",
                        "type": "integer",
                        "required": true,
                        "description": "Unit number (1-4)"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "enum": [
                            "csv",
                            "pdf"
                        ]
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File"
                    }
                }
            }
        },
        "/unit-closure/{number}/audit": {
            "get": {
                "tags": [
                    "UnitClosure"
                ],
                "summary": "Audit trail of bulk actions on a unit number",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "number",
                        "in": "path",
                        "type": "integer",
                        "required": true,
                        "description": "Unit number (1-4)"
                    },
                    {
                        "name": "action",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Audit action filter"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "minimum": 1,
                        "maximum": 200,
                        "description": "Maximum entries (default 50)"
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
        "UpdateUnitPointsRequest": {
            "type": "object",
            "properties": {
                "assignment_id": {
                    "type": "integer"
                },
                "zone_points": {
                    "type": "integer",
                    "minimum": 0,
                    "maximum": 100
                },
                "final_points": {
                    "type": "integer",
                    "minimum": 0,
                    "maximum": 100
                }
            }
        },
        "GradeDraft": {
            "type": "object",
            "properties": {
                "student_id": {
                    "type": "integer"
                },
                "score": {
                    "type": "number"
                },
                "note": {
                    "type": "string"
                }
            },
            "required": [
                "student_id"
            ]
        },
        "GradeBatchRequest": {
            "type": "object",
            "properties": {
                "grades": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/GradeDraft"
                    }
                }
            },
            "required": [
                "grades"
            ]
        },
        "ConfirmRequest": {
            "type": "object",
            "properties": {
                "token": {
                    "type": "string"
                },
                "count": {
                    "type": "integer"
                }
            },
            "required": [
                "token",
                "count"
            ]
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
                },
                "kind": {
                    "type": "string",
                    "enum": [
                        "VALIDATION",
                        "DOMAIN_CONFLICT",
                        "TRANSPORT",
                        "AUTH",
                        "INTERNAL"
                    ]
                },
                "details": {
                    "type": "object"
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
