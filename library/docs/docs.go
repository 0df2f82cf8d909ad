// Package docs registers the hand-written OpenAPI document served at /swagger/*.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/books": {
            "get": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "List books",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Book"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Add a book",
                "parameters": [
                    {"description": "book", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.CreateBookRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.Book"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/borrowers": {
            "get": {
                "produces": ["application/json"],
                "tags": ["borrowers"],
                "summary": "List borrowers",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Borrower"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["borrowers"],
                "summary": "Create a borrower",
                "parameters": [
                    {"description": "borrower", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.CreateBorrowerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.Borrower"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/borrowers/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["borrowers"],
                "summary": "Get a borrower",
                "parameters": [
                    {"type": "integer", "description": "borrower id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Borrower"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/borrowed-books": {
            "get": {
                "produces": ["application/json"],
                "tags": ["borrowed-books"],
                "summary": "List borrowed books",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.BorrowedBook"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["borrowed-books"],
                "summary": "Borrow a book",
                "parameters": [
                    {"description": "borrow", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.BorrowRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.BorrowResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/borrowed-books/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["borrowed-books"],
                "summary": "List books borrowed by a borrower",
                "parameters": [
                    {"type": "integer", "description": "borrower id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.BorrowedBook"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/manage/health": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["manage"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "handler.errorResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "model.Book": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "author": {"type": "string"},
                "is_borrowed": {"type": "boolean"}
            }
        },
        "model.Borrower": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "model.BorrowedBook": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "author": {"type": "string"}
            }
        },
        "model.CreateBookRequest": {
            "type": "object",
            "required": ["title", "author"],
            "properties": {
                "title": {"type": "string"},
                "author": {"type": "string"}
            }
        },
        "model.CreateBorrowerRequest": {
            "type": "object",
            "required": ["name", "email"],
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "model.BorrowRequest": {
            "type": "object",
            "required": ["borrower_id", "book_id"],
            "properties": {
                "borrower_id": {"type": "string"},
                "book_id": {"type": "string"}
            }
        },
        "model.BorrowResponse": {
            "type": "object",
            "properties": {
                "borrower_id": {"type": "integer"},
                "book_id": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Library Catalog API",
	Description:      "Books, borrowers and borrowing records.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
