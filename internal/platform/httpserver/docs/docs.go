// Package docs registers the OpenAPI document served at /swagger/doc.json.
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
        "/api/rating-scale/v1/classify": {
            "post": {
                "produces": ["application/json"],
                "tags": ["rating-scale"],
                "summary": "Classify a rating transition",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/workflow/v1/instances": {
            "post": {
                "produces": ["application/json"],
                "tags": ["workflow"],
                "summary": "Create a workflow instance for a mandate",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/api/workflow/v1/instances/{instance_id}/advance": {
            "post": {
                "produces": ["application/json"],
                "tags": ["workflow"],
                "summary": "Perform an activity and activate its successors",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/workflow/v1/instances/{instance_id}/rollback": {
            "post": {
                "produces": ["application/json"],
                "tags": ["workflow"],
                "summary": "Roll the frontier back to an activity's predecessors",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/workflow/v1/instances/{instance_id}/frontier": {
            "get": {
                "produces": ["application/json"],
                "tags": ["workflow"],
                "summary": "List the pending steps of an instance",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/committee/v1/meetings": {
            "get": {
                "produces": ["application/json"],
                "tags": ["committee"],
                "summary": "List committee meetings",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "produces": ["application/json"],
                "tags": ["committee"],
                "summary": "Schedule a committee meeting",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/api/committee/v1/meetings/{meeting_id}/cases/{instrument_detail_id}/ballots": {
            "post": {
                "produces": ["application/json"],
                "tags": ["committee"],
                "summary": "Cast or revise a ballot",
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Meridian Rating Operations API",
	Description:      "Mandate workflow, committee voting, and rating scale services.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
