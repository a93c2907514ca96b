// Package docs holds the Swagger document served at /docs. Keep it in step
// with the handler annotations when routes change.
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
        "/": {
            "get": {
                "description": "Get basic recorder information and capabilities",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Worker information",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.WorkerInfoResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Check if the recorder is healthy and responsive",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}}
                }
            }
        },
        "/monitoring/status": {
            "get": {
                "description": "Engine snapshot, active recording and service state",
                "produces": ["application/json"],
                "tags": ["monitoring"],
                "summary": "Monitoring status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.StatusResponse"}}
                }
            }
        },
        "/monitoring/start": {
            "post": {
                "description": "Bind the selected camera and start motion analysis",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["monitoring"],
                "summary": "Start monitoring",
                "parameters": [
                    {
                        "description": "Camera and audio selection",
                        "name": "request",
                        "in": "body",
                        "schema": {"$ref": "#/definitions/models.StartRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.StatusResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/monitoring/stop": {
            "post": {
                "description": "Release the camera, finish any recording and return to idle",
                "produces": ["application/json"],
                "tags": ["monitoring"],
                "summary": "Stop monitoring",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.StatusResponse"}}
                }
            }
        },
        "/monitoring/enable": {
            "post": {
                "produces": ["application/json"],
                "tags": ["monitoring"],
                "summary": "Enable motion analysis",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.StatusResponse"}}
                }
            }
        },
        "/monitoring/disable": {
            "post": {
                "description": "Keeps the camera bound and stops any active recording",
                "produces": ["application/json"],
                "tags": ["monitoring"],
                "summary": "Disable motion analysis",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.StatusResponse"}}
                }
            }
        },
        "/monitoring/settings": {
            "get": {
                "produces": ["application/json"],
                "tags": ["monitoring"],
                "summary": "Get settings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SettingsResponse"}}
                }
            },
            "put": {
                "description": "Out-of-range values are clamped and reported as adjustments",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["monitoring"],
                "summary": "Update settings",
                "parameters": [
                    {
                        "description": "Fields to change",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handlers.SettingsRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SettingsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/monitoring/logs": {
            "get": {
                "description": "Most recent service log lines, oldest first",
                "produces": ["application/json"],
                "tags": ["monitoring"],
                "summary": "Service log",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.LogsResponse"}}
                }
            }
        },
        "/system/stats": {
            "get": {
                "description": "Get process statistics of the recorder",
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Get system stats",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "bind_failure: failed to bind frame source"},
                "kind": {"type": "string", "example": "bind_failure"}
            }
        },
        "handlers.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "healthy"},
                "worker_id": {"type": "string", "example": "recorder-1"}
            }
        },
        "handlers.LogsResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "lines": {"type": "array", "items": {"$ref": "#/definitions/status.LogEntry"}}
            }
        },
        "handlers.SettingsRequest": {
            "type": "object",
            "properties": {
                "analyze_every_nth_frame": {"type": "integer", "example": 2},
                "auto_exposure_lock": {"type": "boolean", "example": true},
                "consecutive_motion_frames": {"type": "integer", "example": 2},
                "cooldown_ms": {"type": "integer", "example": 2000},
                "downsample_stride": {"type": "integer", "example": 4},
                "motion_ratio_threshold": {"type": "number", "example": 0.03},
                "pixel_diff_threshold": {"type": "integer", "example": 25},
                "record_audio": {"type": "boolean", "example": true},
                "stop_delay_ms": {"type": "integer", "example": 60000},
                "storage_folder_name": {"type": "string", "example": "MotionRecorder"},
                "storage_mode": {"type": "string", "example": "app_private"},
                "use_back_camera": {"type": "boolean", "example": true}
            }
        },
        "handlers.SettingsResponse": {
            "type": "object",
            "properties": {
                "adjustments": {"type": "array", "items": {"type": "object"}},
                "settings": {"type": "object"}
            }
        },
        "handlers.StatusResponse": {
            "type": "object",
            "properties": {
                "engine": {"type": "object"},
                "recording": {"type": "object"},
                "service": {"type": "object"}
            }
        },
        "handlers.WorkerInfoResponse": {
            "type": "object",
            "properties": {
                "capabilities": {"type": "array", "items": {"type": "string"}},
                "status": {"type": "string", "example": "running"},
                "version": {"type": "string", "example": "1.0.0"},
                "worker_id": {"type": "string", "example": "recorder-1"}
            }
        },
        "models.StartRequest": {
            "type": "object",
            "properties": {
                "record_audio": {"type": "boolean", "example": true},
                "target": {"type": "string", "example": "0"},
                "use_back_camera": {"type": "boolean", "example": true}
            }
        },
        "status.LogEntry": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "time": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8000",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Motion Recorder API",
	Description:      "Motion-triggered video recorder: camera binding, motion detection and recording control",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
