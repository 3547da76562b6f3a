// Package docs holds the OpenAPI document served under /swagger/. It mirrors
// the swag annotations on the handlers; regenerate with
// swag init -g cmd/familybook-server/main.go.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/signup": {
            "post": {
                "tags": ["users"],
                "summary": "Register a new user",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "user", "required": true, "schema": {"$ref": "#/definitions/users.SignUpRequest"}}],
                "responses": {
                    "201": {"description": "User created successfully"},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/login": {
            "post": {
                "tags": ["users"],
                "summary": "Authenticate a user",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "user", "required": true, "schema": {"$ref": "#/definitions/users.SignInRequest"}}],
                "responses": {
                    "200": {"description": "User authenticated successfully with token"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Sign out",
                "responses": {"200": {"description": "Signed out", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Current session",
                "responses": {"200": {"description": "Current user"}}
            }
        },
        "/accounts/mine": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["accounts"],
                "summary": "Own account",
                "responses": {
                    "200": {"description": "Owned account", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "No owned account", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/accounts/join": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["accounts"],
                "summary": "Join by invite code",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/types.JoinRequest"}}],
                "responses": {
                    "201": {"description": "Join requested", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Unknown invite code", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Already a member", "schema": {"$ref": "#/definitions/response.Response"}},
                    "429": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/accounts/{account_id}/members": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["accounts"],
                "summary": "List members",
                "parameters": [{"in": "path", "name": "account_id", "type": "integer", "required": true}],
                "responses": {"200": {"description": "Members", "schema": {"$ref": "#/definitions/response.Response"}}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["accounts"],
                "summary": "Update members",
                "parameters": [
                    {"in": "path", "name": "account_id", "type": "integer", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/types.MemberUpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated member list", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/accounts/{account_id}/albums": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["albums"],
                "summary": "List albums",
                "parameters": [{"in": "path", "name": "account_id", "type": "integer", "required": true}],
                "responses": {"200": {"description": "Albums with photo counts", "schema": {"$ref": "#/definitions/response.Response"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["albums"],
                "summary": "Create album",
                "parameters": [
                    {"in": "path", "name": "account_id", "type": "integer", "required": true},
                    {"in": "body", "name": "album", "required": true, "schema": {"$ref": "#/definitions/types.AlbumCreateRequest"}}
                ],
                "responses": {"201": {"description": "Album created, data holds its id", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/albums/{album_id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["albums"],
                "summary": "Album detail",
                "parameters": [{"in": "path", "name": "album_id", "type": "integer", "required": true}],
                "responses": {"200": {"description": "Album", "schema": {"$ref": "#/definitions/response.Response"}}}
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["albums"],
                "summary": "Rename album",
                "parameters": [
                    {"in": "path", "name": "album_id", "type": "integer", "required": true},
                    {"in": "body", "name": "album", "required": true, "schema": {"$ref": "#/definitions/types.AlbumRenameRequest"}}
                ],
                "responses": {
                    "200": {"description": "Album renamed", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["albums"],
                "summary": "Delete album",
                "parameters": [{"in": "path", "name": "album_id", "type": "integer", "required": true}],
                "responses": {
                    "200": {"description": "Album deleted", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/albums/{album_id}/photos": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["photos"],
                "summary": "List photos",
                "parameters": [
                    {"in": "path", "name": "album_id", "type": "integer", "required": true},
                    {"in": "query", "name": "sort", "type": "string", "enum": ["created_at", "username"]}
                ],
                "responses": {"200": {"description": "Photos with like counts", "schema": {"$ref": "#/definitions/response.Response"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["photos"],
                "summary": "Upload photos",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"in": "path", "name": "album_id", "type": "integer", "required": true},
                    {"in": "formData", "name": "files", "type": "file", "required": true}
                ],
                "responses": {
                    "201": {"description": "Stored photos", "schema": {"$ref": "#/definitions/response.Response"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/response.Response"}},
                    "502": {"description": "Blob store failure", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/photos/{photo_id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["photos"],
                "summary": "Delete photo",
                "parameters": [{"in": "path", "name": "photo_id", "type": "integer", "required": true}],
                "responses": {"200": {"description": "Photo deleted", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/photos/{photo_id}/like": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["photos"],
                "summary": "Toggle like",
                "parameters": [{"in": "path", "name": "photo_id", "type": "integer", "required": true}],
                "responses": {"200": {"description": "Like state", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/photos/{photo_id}/comments": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["photos"],
                "summary": "List comments",
                "parameters": [{"in": "path", "name": "photo_id", "type": "integer", "required": true}],
                "responses": {"200": {"description": "Comments", "schema": {"$ref": "#/definitions/response.Response"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["photos"],
                "summary": "Add comment",
                "parameters": [
                    {"in": "path", "name": "photo_id", "type": "integer", "required": true},
                    {"in": "body", "name": "comment", "required": true, "schema": {"$ref": "#/definitions/types.CommentCreateRequest"}}
                ],
                "responses": {"201": {"description": "Comment created, data holds its id", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/photos/{photo_id}/comments/{comment_id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["photos"],
                "summary": "Delete comment",
                "parameters": [
                    {"in": "path", "name": "photo_id", "type": "integer", "required": true},
                    {"in": "path", "name": "comment_id", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "Comment deleted", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Comment not found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/accounts/{account_id}/stories": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["stories"],
                "summary": "Get stories feed",
                "parameters": [{"in": "path", "name": "account_id", "type": "integer", "required": true}],
                "responses": {"200": {"description": "Stories fetched successfully", "schema": {"$ref": "#/definitions/response.Response"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["stories"],
                "summary": "Post stories",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"in": "path", "name": "account_id", "type": "integer", "required": true},
                    {"in": "formData", "name": "files", "type": "file", "required": true}
                ],
                "responses": {"201": {"description": "Stories created", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/stories/{story_id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["stories"],
                "summary": "Delete story",
                "parameters": [{"in": "path", "name": "story_id", "type": "integer", "required": true}],
                "responses": {
                    "200": {"description": "Story deleted", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Only the author can delete a story", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/accounts/{account_id}/stories/live": {
            "get": {
                "tags": ["realtime"],
                "summary": "Live stories viewer",
                "parameters": [
                    {"in": "path", "name": "account_id", "type": "integer", "required": true},
                    {"in": "query", "name": "token", "type": "string", "required": true}
                ],
                "responses": {"101": {"description": "Switching protocols"}}
            }
        },
        "/ws": {
            "get": {
                "tags": ["realtime"],
                "summary": "Account events stream",
                "parameters": [{"in": "query", "name": "token", "type": "string", "required": true}],
                "responses": {"101": {"description": "Switching protocols"}}
            }
        },
        "/healthz": {
            "get": {
                "tags": ["health"],
                "summary": "Liveness with the open websocket count",
                "responses": {"200": {"description": "ok", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/healthz/cache": {
            "get": {
                "tags": ["cache"],
                "summary": "Cache statistics",
                "responses": {"200": {"description": "Cache stats retrieved", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/admin/cache": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["cache"],
                "summary": "Clear cache",
                "parameters": [{"in": "query", "name": "type", "type": "string", "enum": ["stories", "albums", "members", "all"]}],
                "responses": {
                    "200": {"description": "Cache cleared", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Admin access required", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        }
    },
    "definitions": {
        "response.Response": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "error": {"type": "string"},
                "message": {"type": "string"},
                "data": {}
            }
        },
        "users.SignUpRequest": {
            "type": "object",
            "required": ["email", "username", "password", "confirm_password"],
            "properties": {
                "email": {"type": "string"},
                "username": {"type": "string", "minLength": 2, "maxLength": 64},
                "password": {"type": "string", "minLength": 6},
                "confirm_password": {"type": "string"}
            }
        },
        "users.SignInRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 6}
            }
        },
        "types.Account": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "owner_id": {"type": "string"},
                "title": {"type": "string"},
                "invite_code": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "types.JoinRequest": {
            "type": "object",
            "required": ["invite_code"],
            "properties": {"invite_code": {"type": "string"}}
        },
        "types.Permissions": {
            "type": "object",
            "properties": {
                "can_add": {"type": "boolean"},
                "can_edit": {"type": "boolean"},
                "can_delete": {"type": "boolean"}
            }
        },
        "types.MemberUpdate": {
            "type": "object",
            "required": ["user_id", "role"],
            "properties": {
                "user_id": {"type": "string"},
                "role": {"type": "string", "enum": ["owner", "member", "guest", "pending"]},
                "permissions": {"$ref": "#/definitions/types.Permissions"}
            }
        },
        "types.MemberUpdateRequest": {
            "type": "object",
            "required": ["updates"],
            "properties": {
                "updates": {"type": "array", "items": {"$ref": "#/definitions/types.MemberUpdate"}}
            }
        },
        "types.AlbumCreateRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {"title": {"type": "string", "maxLength": 200}}
        },
        "types.AlbumRenameRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {"title": {"type": "string", "maxLength": 200}}
        },
        "types.CommentCreateRequest": {
            "type": "object",
            "required": ["text"],
            "properties": {"text": {"type": "string", "maxLength": 2000}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "familybook API",
	Description:      "Private family accounts sharing albums, photos and stories.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
