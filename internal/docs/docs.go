// Package docs registra la especificación OpenAPI servida en /swagger/*.
// Regenerar con: swag init -g cmd/api/main.go -o internal/docs
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
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Liveness",
                "responses": {"200": {"description": "ok"}}
            }
        },
        "/me/society": {
            "get": {
                "tags": ["societies"],
                "summary": "Obtener la society del usuario",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/societies.societyResponse"}},
                    "401": {"description": "unauthorized"},
                    "404": {"description": "SocietyID not found."}
                }
            },
            "put": {
                "tags": ["societies"],
                "summary": "Asignar society al usuario",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/societies.assignSocietyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/societies.societyResponse"}},
                    "400": {"description": "invalid json / society_id inválido"},
                    "401": {"description": "unauthorized"}
                }
            }
        },
        "/animals": {
            "get": {
                "tags": ["animals"],
                "summary": "Listar animales",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Tipo de animal (dog|cat)", "name": "type", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/animals.animalResponse"}}},
                    "400": {"description": "type inválido"}
                }
            },
            "post": {
                "tags": ["animals"],
                "summary": "Registrar animal",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/animals.registerAnimalRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/animals.animalResponse"}},
                    "400": {"description": "invalid json / datos inválidos"},
                    "409": {"description": "animal already exists"}
                }
            }
        },
        "/animals/{animalType}/{animalID}": {
            "get": {
                "tags": ["animals"],
                "summary": "Obtener animal",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "animalType", "in": "path", "required": true},
                    {"type": "string", "name": "animalID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/animals.animalResponse"}},
                    "404": {"description": "animal not found"}
                }
            }
        },
        "/animals/{animalType}/{animalID}/checkout": {
            "post": {
                "tags": ["animals"],
                "summary": "Sacar animal de la jaula",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "animalType", "in": "path", "required": true},
                    {"type": "string", "name": "animalID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/animals.animalResponse"}},
                    "404": {"description": "animal not found"},
                    "502": {"description": "store write failed"}
                }
            }
        },
        "/animals/{animalType}/{animalID}/checkin": {
            "post": {
                "tags": ["animals"],
                "summary": "Devolver animal a la jaula",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "animalType", "in": "path", "required": true},
                    {"type": "string", "name": "animalID", "in": "path", "required": true},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/animals.checkInRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/animals.checkInResponse"}},
                    "404": {"description": "animal not found"},
                    "502": {"description": "store write failed"}
                }
            }
        },
        "/animals/{animalType}/{animalID}/logs": {
            "get": {
                "tags": ["animals"],
                "summary": "Listar visitas",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "animalType", "in": "path", "required": true},
                    {"type": "string", "name": "animalID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/animals.visitResponse"}}},
                    "404": {"description": "animal not found"}
                }
            },
            "post": {
                "tags": ["animals"],
                "summary": "Registrar visita manualmente",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "animalType", "in": "path", "required": true},
                    {"type": "string", "name": "animalID", "in": "path", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/animals.visitResponse"}},
                    "404": {"description": "animal not found / document missing"},
                    "502": {"description": "store write failed"}
                }
            }
        }
    },
    "definitions": {
        "animals.registerAnimalRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "animal_type": {"type": "string", "enum": ["dog", "cat"]}
            }
        },
        "animals.checkInRequest": {
            "type": "object",
            "properties": {"silent": {"type": "boolean"}}
        },
        "animals.visitResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "start_time": {"type": "number"},
                "end_time": {"type": "number"},
                "duration_minutes": {"type": "integer"}
            }
        },
        "animals.animalResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "animal_type": {"type": "string", "enum": ["dog", "cat"]},
                "in_cage": {"type": "boolean"},
                "start_time": {"type": "number"},
                "logs": {"type": "array", "items": {"$ref": "#/definitions/animals.visitResponse"}}
            }
        },
        "animals.checkInResponse": {
            "type": "object",
            "properties": {
                "outcome": {"type": "string", "enum": ["logged_visit", "visit_too_short", "already_in_cage", "failed", "silent"]},
                "visit": {"$ref": "#/definitions/animals.visitResponse"},
                "reason": {"type": "string"},
                "elapsed_minutes": {"type": "integer"},
                "animal": {"$ref": "#/definitions/animals.animalResponse"}
            }
        },
        "societies.assignSocietyRequest": {
            "type": "object",
            "properties": {"society_id": {"type": "string"}}
        },
        "societies.societyResponse": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "society_id": {"type": "string"}
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
	Title:            "Shelter Partner API",
	Description:      "Check-out / check-in de animales del refugio y registro de visitas.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
