// Package docs содержит описание HTTP API в формате Swagger 2.0,
// которое отдаётся по /docs/*.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/auth/register": {
            "post": {
                "description": "Создаёт пользователя с пробным периодом и выставляет сессионную cookie",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Регистрация",
                "parameters": [
                    {
                        "description": "Учётные данные",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/auth.Credentials"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.SessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "description": "Проверяет пароль и выставляет сессионную cookie",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Вход",
                "parameters": [
                    {
                        "description": "Учётные данные",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/auth.Credentials"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.SessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/auth/me": {
            "get": {
                "description": "Перевыпускает сессию по сохранённому пользователю",
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Текущий пользователь",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/me.Data"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/auth/logout": {
            "post": {
                "description": "Удаляет сессионную cookie",
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Выход",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/billing/webhook": {
            "post": {
                "description": "Принимает события провайдера, подписанные HMAC-SHA256 в заголовке X-Signature",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["billing"],
                "summary": "Вебхук биллинга",
                "parameters": [
                    {
                        "type": "string",
                        "description": "base64(HMAC-SHA256(body))",
                        "name": "X-Signature",
                        "in": "header",
                        "required": true
                    },
                    {
                        "description": "Событие",
                        "name": "event",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/billing.Event"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/tools": {
            "get": {
                "description": "Каталог инструментов и статус доступа вызывающего",
                "produces": ["application/json"],
                "tags": ["tools"],
                "summary": "Каталог",
                "security": [{"SessionCookie": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/catalog.Data"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}},
                    "402": {"description": "Payment Required", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/tools/access": {
            "get": {
                "description": "Статус доступа вызывающего",
                "produces": ["application/json"],
                "tags": ["tools"],
                "summary": "Доступ",
                "security": [{"SessionCookie": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/access.Status"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}},
                    "402": {"description": "Payment Required", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["service"],
                "summary": "Проверка зависимостей",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        }
    },
    "definitions": {
        "access.Status": {
            "type": "object",
            "properties": {
                "hasAccess": {"type": "boolean"},
                "reason": {"type": "string", "enum": ["active_subscription", "trial", "expired"]},
                "trialEndsAt": {"type": "string"},
                "trialDaysLeft": {"type": "integer"},
                "subscriptionStatus": {"type": "string", "enum": ["active", "inactive"]}
            }
        },
        "auth.Credentials": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string", "example": "user@example.com"},
                "password": {"type": "string", "minLength": 8}
            }
        },
        "auth.SessionResponse": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "access": {"$ref": "#/definitions/access.Status"}
            }
        },
        "me.Data": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "subscriptionStatus": {"type": "string"},
                "trialEndsAt": {"type": "string"},
                "access": {"$ref": "#/definitions/access.Status"}
            }
        },
        "catalog.Data": {
            "type": "object",
            "properties": {
                "tools": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/tools.Tool"}
                },
                "access": {"$ref": "#/definitions/access.Status"}
            }
        },
        "tools.Tool": {
            "type": "object",
            "properties": {
                "slug": {"type": "string"},
                "title": {"type": "string"},
                "path": {"type": "string"}
            }
        },
        "billing.Event": {
            "type": "object",
            "required": ["type"],
            "properties": {
                "type": {"type": "string", "example": "checkout.completed"},
                "data": {
                    "type": "object",
                    "properties": {
                        "email": {"type": "string"},
                        "customerId": {"type": "string"},
                        "subscriptionId": {"type": "string"},
                        "status": {"type": "string"}
                    }
                }
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "error": {"type": "string"},
                "data": {}
            }
        }
    },
    "securityDefinitions": {
        "SessionCookie": {
            "type": "apiKey",
            "name": "toolbox_session",
            "in": "cookie"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Toolbox API",
	Description:      "Сессии, пробный период и доступ к платным инструментам",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
