package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Report Batch API",
        "description": "Class rankings and bulk report card printing/saving",
        "version": "0.2.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Selection", "description": "Students picked for the next batch"},
        {"name": "Batch", "description": "Bulk print and save of report cards"},
        {"name": "Rankings", "description": "Class positions and broadsheets"},
        {"name": "Export", "description": "Signed downloads of saved report cards"}
    ],
    "paths": {
        "/health": {
            "get": {"summary": "Health check", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {"summary": "Readiness check", "responses": {"200": {"description": "Ready"}, "503": {"description": "Not ready"}}}
        },
        "/api/v1/selection": {
            "get": {
                "tags": ["Selection"],
                "summary": "Current selection",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Selection"],
                "summary": "Clear the selection",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "Cleared"}}
            }
        },
        "/api/v1/selection/class": {
            "put": {
                "tags": ["Selection"],
                "summary": "Switch class and clear the selection",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SelectionClassRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/selection/select": {
            "post": {
                "tags": ["Selection"],
                "summary": "Select a student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SelectStudentRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/selection/deselect": {
            "post": {
                "tags": ["Selection"],
                "summary": "Deselect a student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SelectStudentRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/selection/select-all": {
            "post": {
                "tags": ["Selection"],
                "summary": "Select many students",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SelectAllRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/batch": {
            "get": {
                "tags": ["Batch"],
                "summary": "Current batch state",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/batch/print": {
            "post": {
                "tags": ["Batch"],
                "summary": "Print report cards for the selected students",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Empty selection or invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Renderer unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/batch/save": {
            "post": {
                "tags": ["Batch"],
                "summary": "Save report cards for the selected students",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Empty selection or invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/batch/errors": {
            "delete": {
                "tags": ["Batch"],
                "summary": "Dismiss batch errors",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Cleared"},
                    "409": {"description": "A batch is running", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/rankings/classes/{classId}": {
            "get": {
                "tags": ["Rankings"],
                "summary": "Class ranking",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "subject", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/rankings/classes/{classId}/export": {
            "get": {
                "tags": ["Rankings"],
                "summary": "Export a class broadsheet",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "required": true, "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "subject", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"}
                ],
                "responses": {"200": {"description": "Broadsheet file", "schema": {"type": "file"}}}
            }
        },
        "/api/v1/export/{token}": {
            "get": {
                "tags": ["Export"],
                "summary": "Download a saved report card",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Report card", "schema": {"type": "file"}},
                    "403": {"description": "Link expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SelectionClassRequest": {
            "type": "object",
            "properties": {"classId": {"type": "string"}},
            "required": ["classId"]
        },
        "SelectStudentRequest": {
            "type": "object",
            "properties": {"studentId": {"type": "string"}},
            "required": ["studentId"]
        },
        "SelectAllRequest": {
            "type": "object",
            "properties": {"studentIds": {"type": "array", "items": {"type": "string"}}},
            "required": ["studentIds"]
        },
        "PrintSettingsRequest": {
            "type": "object",
            "properties": {
                "term": {"type": "string"},
                "academicSession": {"type": "string"},
                "includeComments": {"type": "boolean"},
                "includeSignatures": {"type": "boolean"}
            },
            "required": ["term", "academicSession"]
        },
        "BulkReportRequest": {
            "type": "object",
            "properties": {
                "subjects": {"type": "array", "items": {"type": "string"}},
                "settings": {"$ref": "#/definitions/PrintSettingsRequest"}
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
