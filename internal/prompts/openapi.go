package prompts

import "github.com/one2ten/stetho-agent/pkg/openapi"

type spec struct {
	List         *openapi.Operation
	Stages       *openapi.Operation
	Find         *openapi.Operation
	Instructions *openapi.Operation
	Spec         *openapi.Operation
	Create       *openapi.Operation
	Update       *openapi.Operation
	Delete       *openapi.Operation
	Search       *openapi.Operation
	Activate     *openapi.Operation
	Deactivate   *openapi.Operation
	Schemas      map[string]*openapi.Schema
}

var stageParam = &openapi.Parameter{
	Name:     "stage",
	In:       "path",
	Required: true,
	Schema:   &openapi.Schema{Type: "string", Enum: stageEnum()},
}

// OpenAPI documents the prompt override endpoints.
var OpenAPI = spec{
	List: &openapi.Operation{
		Summary: "List prompt overrides",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("page_size", "integer", "Results per page", false),
			openapi.QueryParam("search", "string", "Matches name or description", false),
			openapi.QueryParam("stage", "string", "Filter by stage", false),
			openapi.QueryParam("name", "string", "Name contains", false),
			openapi.QueryParam("active", "boolean", "Filter by active flag", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Prompt page", "PromptPage"),
		},
	},
	Stages: &openapi.Operation{
		Summary: "List triage stages",
		Responses: map[int]*openapi.Response{
			200: {Description: "Stage names"},
		},
	},
	Find: &openapi.Operation{
		Summary:    "Find a prompt override",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Prompt ID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Prompt", "Prompt"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Instructions: &openapi.Operation{
		Summary:     "Effective instructions for a stage",
		Description: "Returns the active override, or the built-in default when none is active.",
		Parameters:  []*openapi.Parameter{stageParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Stage content", "StageContent"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Spec: &openapi.Operation{
		Summary:    "Output constraints for a stage",
		Parameters: []*openapi.Parameter{stageParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Stage content", "StageContent"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Create: &openapi.Operation{
		Summary:     "Create a prompt override",
		RequestBody: openapi.RequestBodyJSON("PromptCommand", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Created prompt", "Prompt"),
			400: openapi.ResponseRef("BadRequest"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	Update: &openapi.Operation{
		Summary:     "Update a prompt override",
		Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Prompt ID")},
		RequestBody: openapi.RequestBodyJSON("PromptCommand", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Updated prompt", "Prompt"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	Delete: &openapi.Operation{
		Summary:    "Delete a prompt override",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Prompt ID")},
		Responses: map[int]*openapi.Response{
			204: {Description: "Deleted"},
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Search: &openapi.Operation{
		Summary: "Search prompt overrides",
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Prompt page", "PromptPage"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Activate: &openapi.Operation{
		Summary:     "Activate a prompt override",
		Description: "Deactivates any other override for the same stage.",
		Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Prompt ID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Activated prompt", "Prompt"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Deactivate: &openapi.Operation{
		Summary:    "Deactivate a prompt override",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Prompt ID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Deactivated prompt", "Prompt"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"Prompt": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           {Type: "string", Format: "uuid"},
				"name":         {Type: "string"},
				"stage":        {Type: "string", Enum: stageEnum()},
				"instructions": {Type: "string"},
				"description":  {Type: "string"},
				"active":       {Type: "boolean"},
			},
		},
		"PromptCommand": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"name":         {Type: "string"},
				"stage":        {Type: "string", Enum: stageEnum()},
				"instructions": {Type: "string"},
				"description":  {Type: "string"},
			},
			Required: []string{"name", "stage", "instructions"},
		},
		"PromptPage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        {Type: "array", Items: openapi.SchemaRef("Prompt")},
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
				"has_next":    {Type: "boolean"},
			},
		},
		"StageContent": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"stage":   {Type: "string"},
				"content": {Type: "string"},
			},
		},
	},
}

func stageEnum() []any {
	stages := Stages()
	out := make([]any, len(stages))
	for i, s := range stages {
		out[i] = string(s)
	}
	return out
}
