package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Fairu API",
        "description": "File metadata catalog with Google sign in, moderation and CAPTCHA gated downloads",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Google sign in"},
        {"name": "Contributors", "description": "Contributor directory and moderation"},
        {"name": "Files", "description": "File catalog"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unreachable"}
                }
            }
        },
        "/auth/google": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Sign in with Google",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GoogleSignInRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SignInResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/contributors/": {
            "get": {
                "tags": ["Contributors"],
                "summary": "List contributors",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/contributors/count": {
            "get": {
                "tags": ["Contributors"],
                "summary": "Count contributors",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/contributors/role": {
            "get": {
                "tags": ["Contributors"],
                "summary": "Caller role",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/contributors/me": {
            "get": {
                "tags": ["Contributors"],
                "summary": "Caller profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/contributors/ban/{id}": {
            "post": {
                "tags": ["Contributors"],
                "summary": "Toggle contributor ban",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/contributors/admin/{id}": {
            "post": {
                "tags": ["Contributors"],
                "summary": "Assign admin role",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetAdminRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/files/": {
            "get": {
                "tags": ["Files"],
                "summary": "List files",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "unverified", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/files/count": {
            "get": {
                "tags": ["Files"],
                "summary": "Count files",
                "parameters": [
                    {"name": "unverified", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/files/pagecount": {
            "get": {
                "tags": ["Files"],
                "summary": "Count file pages",
                "parameters": [
                    {"name": "unverified", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/files/search": {
            "get": {
                "tags": ["Files"],
                "summary": "Search files",
                "parameters": [
                    {"name": "query", "in": "query", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "unverified", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/files/search/count": {
            "get": {
                "tags": ["Files"],
                "summary": "Count search results",
                "parameters": [
                    {"name": "query", "in": "query", "required": true, "type": "string"},
                    {"name": "unverified", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/files/search/pagecount": {
            "get": {
                "tags": ["Files"],
                "summary": "Count search result pages",
                "parameters": [
                    {"name": "query", "in": "query", "required": true, "type": "string"},
                    {"name": "unverified", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/files/details/{id}": {
            "get": {
                "tags": ["Files"],
                "summary": "File details",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/files/download/{id}/{index}": {
            "post": {
                "tags": ["Files"],
                "summary": "Resolve a download link",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "index", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DownloadRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "CAPTCHA missing or rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/files/add": {
            "post": {
                "tags": ["Files"],
                "summary": "Add a file",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateFileRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/files/update/{id}": {
            "post": {
                "tags": ["Files"],
                "summary": "Update a file",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateFileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/files/delete": {
            "delete": {
                "tags": ["Files"],
                "summary": "Bulk delete files",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DeleteFilesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GoogleSignInRequest": {
            "type": "object",
            "properties": {
                "tokenId": {"type": "string"}
            }
        },
        "SignInResponse": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object",
                    "properties": {
                        "username": {"type": "string"},
                        "email": {"type": "string"}
                    }
                },
                "token": {"type": "string"}
            }
        },
        "SetAdminRequest": {
            "type": "object",
            "properties": {
                "isAdmin": {"type": "boolean"}
            }
        },
        "DownloadRequest": {
            "type": "object",
            "properties": {
                "captchaID": {"type": "string"}
            }
        },
        "DeleteFilesRequest": {
            "type": "object",
            "properties": {
                "ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "CreateFileRequest": {
            "type": "object",
            "required": ["filename", "filetype", "downloadURLs"],
            "properties": {
                "filename": {"type": "string", "minLength": 5, "maxLength": 256},
                "description": {"type": "string", "maxLength": 400},
                "tags": {"type": "array", "maxItems": 256, "items": {"type": "string", "minLength": 2, "maxLength": 50}},
                "filetype": {"type": "string", "enum": ["pdf", "doc", "pptx", "xlsx", "odf", "epub", "zip", "others"]},
                "downloadURLs": {"type": "array", "minItems": 1, "maxItems": 12, "items": {"type": "string", "format": "uri"}}
            }
        },
        "UpdateFileRequest": {
            "type": "object",
            "properties": {
                "filename": {"type": "string"},
                "description": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "filetype": {"type": "string"},
                "downloadURLs": {"type": "array", "items": {"type": "string"}},
                "verified": {"type": "boolean"}
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
