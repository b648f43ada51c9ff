// Package docs registers the Swagger document served at /swagger.
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/walk-requests": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Walks"],
                "summary": "Create walk request",
                "description": "Price a walk, check the weekly cash allowance and create the walk with its payment",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "Idempotency-Key", "in": "header"},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/createWalkRequestRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/WalkRequestResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "403": {"description": "Weekly cash limit reached", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/walk-requests/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Walks"],
                "summary": "Get walk request",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/WalkRequest"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/payments/intent": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Payments"],
                "summary": "Create payment intent",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/paymentIntentRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Payment"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/payments/under-review": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Payments"],
                "summary": "List payments under review",
                "produces": ["application/json"],
                "parameters": [{"type": "integer", "name": "limit", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Payment"}}}
                }
            }
        },
        "/payments/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Payments"],
                "summary": "Get payment",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Payment"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/payments/{id}/proof": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Payments"],
                "summary": "Upload payment proof",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/uploadProofRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Payment"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/payments/{id}/mark-paid": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Payments"],
                "summary": "Mark payment paid",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Payment"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/payments/{id}/mark-failed": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Payments"],
                "summary": "Mark payment failed",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Payment"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/billing/cash-quota": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Billing"],
                "summary": "Weekly cash quota",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "clientId", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CashQuota"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/clarifications": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Clarifications"],
                "summary": "Create clarification",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/clarifications/open": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Clarifications"],
                "summary": "List open clarifications",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/clarifications/{id}/resolve": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Clarifications"],
                "summary": "Resolve clarification",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "PricingSnapshot": {
            "type": "object",
            "properties": {
                "operationalFee": {"type": "string"},
                "appShare": {"type": "string"},
                "walkerShare": {"type": "string"},
                "scheme": {"type": "string", "enum": ["FIXED_APP_FEE", "PROMO_SPLIT"]}
            }
        },
        "Payment": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "walkRequestId": {"type": "string"},
                "clientId": {"type": "string"},
                "walkerId": {"type": "string"},
                "method": {"type": "string", "enum": ["CASH", "BANK_TRANSFER"]},
                "status": {"type": "string", "enum": ["PENDING", "REQUIRES_PROOF", "UNDER_REVIEW", "PAID", "FAILED", "DISPUTED"]},
                "amount": {"type": "string"},
                "currency": {"type": "string"},
                "distribution": {"$ref": "#/definitions/PricingSnapshot"},
                "isPromo": {"type": "boolean"},
                "proofUrl": {"type": "string"},
                "proofNote": {"type": "string"},
                "settledAt": {"type": "string"},
                "version": {"type": "integer"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "WalkRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "clientId": {"type": "string"},
                "dogIds": {"type": "array", "items": {"type": "string"}},
                "type": {"type": "string", "enum": ["immediate", "scheduled", "recurring"]},
                "when": {
                    "type": "object",
                    "properties": {"startAt": {"type": "string"}, "durationMins": {"type": "integer"}}
                },
                "paymentMethod": {"type": "string"},
                "isPromo": {"type": "boolean"},
                "amount": {"type": "string"},
                "pricingSnapshot": {"$ref": "#/definitions/PricingSnapshot"},
                "paymentId": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "BankInstructions": {
            "type": "object",
            "properties": {
                "beneficiary": {"type": "string"},
                "clabe": {"type": "string"},
                "bankName": {"type": "string"},
                "instructions": {"type": "string"},
                "reference": {"type": "string"},
                "amount": {"type": "string"},
                "currency": {"type": "string"},
                "qrImage": {"type": "string"}
            }
        },
        "WalkRequestResult": {
            "type": "object",
            "properties": {
                "walkRequest": {"$ref": "#/definitions/WalkRequest"},
                "payment": {"$ref": "#/definitions/Payment"},
                "bankInstructions": {"$ref": "#/definitions/BankInstructions"}
            }
        },
        "CashQuota": {
            "type": "object",
            "properties": {
                "weekStart": {"type": "string"},
                "limitHours": {"type": "number"},
                "usedHours": {"type": "number"},
                "remainingHours": {"type": "number"}
            }
        },
        "createWalkRequestRequest": {
            "type": "object",
            "required": ["dogIds", "paymentMethod", "when"],
            "properties": {
                "clientId": {"type": "string"},
                "dogIds": {"type": "array", "items": {"type": "string"}},
                "paymentMethod": {"type": "string", "enum": ["CASH", "BANK_TRANSFER"]},
                "isPromo": {"type": "boolean"},
                "type": {"type": "string"},
                "when": {
                    "type": "object",
                    "properties": {"startAt": {"type": "string"}, "durationMins": {"type": "integer"}}
                },
                "notes": {"type": "string"}
            }
        },
        "paymentIntentRequest": {
            "type": "object",
            "required": ["method", "amount"],
            "properties": {
                "clientId": {"type": "string"},
                "walkRequestId": {"type": "string"},
                "walkerId": {"type": "string"},
                "method": {"type": "string", "enum": ["CASH", "BANK_TRANSFER"]},
                "amount": {"type": "string"},
                "isPromo": {"type": "boolean"}
            }
        },
        "uploadProofRequest": {
            "type": "object",
            "required": ["proofUrl"],
            "properties": {
                "proofUrl": {"type": "string"},
                "note": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Paseos Peludos Booking API",
	Description:      "Walk booking, cash allowance and payment settlement",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
