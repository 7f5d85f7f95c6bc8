package reports

import "github.com/one2ten/stetho-agent/pkg/openapi"

type spec struct {
	List      *openapi.Operation
	Create    *openapi.Operation
	Upload    *openapi.Operation
	Search    *openapi.Operation
	Options   *openapi.Operation
	Find      *openapi.Operation
	Export    *openapi.Operation
	Recording *openapi.Operation
	Delete    *openapi.Operation
	Schemas   map[string]*openapi.Schema
}

// OpenAPI documents the report endpoints.
var OpenAPI = spec{
	List: &openapi.Operation{
		Summary: "List reports",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("page_size", "integer", "Results per page", false),
			openapi.QueryParam("search", "string", "Matches risk level or audio label", false),
			openapi.QueryParam("sort", "string", "Sort fields, prefix - for descending", false),
			openapi.QueryParam("risk_level", "string", "Comma-separated risk levels", false),
			openapi.QueryEnum("user_mode", "Audience the report was written for", "general", "professional"),
			openapi.QueryParam("immediate_action", "boolean", "Filter by immediate-action flag", false),
			openapi.QueryParam("audio_label", "string", "Audio label contains", false),
			openapi.QueryParam("min_score", "number", "Minimum risk score, inclusive", false).Range(0, 100),
			openapi.QueryParam("max_score", "number", "Maximum risk score, inclusive", false).Range(0, 100),
			openapi.QueryParam("since", "string", "Created at or after (RFC 3339 or YYYY-MM-DD)", false),
			openapi.QueryParam("until", "string", "Created before (RFC 3339 or YYYY-MM-DD)", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Report page", "ReportPage"),
		},
	},
	Create: &openapi.Operation{
		Summary:     "Run a triage",
		Description: "Runs the triage graph on the supplied input and stores the report. Every input field is optional.",
		RequestBody: openapi.RequestBodyJSON("TriageInput", false),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Stored report", "Report"),
			400: openapi.ResponseRef("BadRequest"),
			503: openapi.ResponseRef("ServiceUnavailable"),
		},
	},
	Upload: &openapi.Operation{
		Summary:     "Run a triage from a recording",
		Description: "Stores the recording, classifies it, and runs the triage with the classification as audio input.",
		RequestBody: &openapi.RequestBody{
			Required: true,
			Content: map[string]*openapi.MediaType{
				"multipart/form-data": {
					Schema: &openapi.Schema{
						Type: "object",
						Properties: map[string]*openapi.Schema{
							"file":  {Type: "string", Format: "binary", Description: "Auscultation recording"},
							"input": {Type: "string", Description: "TriageInput as JSON"},
						},
						Required: []string{"file"},
					},
				},
			},
		},
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Stored report", "Report"),
			400: openapi.ResponseRef("BadRequest"),
			413: openapi.ResponseRef("PayloadTooLarge"),
			502: openapi.ResponseRef("BadGateway"),
			503: openapi.ResponseRef("ServiceUnavailable"),
		},
	},
	Search: &openapi.Operation{
		Summary:     "Search reports",
		RequestBody: openapi.RequestBodyJSON("ReportSearch", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Report page", "ReportPage"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Options: &openapi.Operation{
		Summary: "List input options",
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Accepted categorical values", "Options"),
		},
	},
	Find: &openapi.Operation{
		Summary:    "Find a report",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Report ID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Report", "Report"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Export: &openapi.Operation{
		Summary:    "Export a report as Markdown",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Report ID")},
		Responses: map[int]*openapi.Response{
			200: {
				Description: "Markdown document",
				Content: map[string]*openapi.MediaType{
					"text/markdown": {Schema: &openapi.Schema{Type: "string"}},
				},
			},
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Recording: &openapi.Operation{
		Summary:    "Download the uploaded recording",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Report ID")},
		Responses: map[int]*openapi.Response{
			200: {Description: "Recording bytes"},
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Delete: &openapi.Operation{
		Summary:    "Delete a report",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Report ID")},
		Responses: map[int]*openapi.Response{
			204: {Description: "Deleted"},
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"TriageInput": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"vitals": {
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"heart_rate":  {Type: "integer", Minimum: float(30), Maximum: float(250)},
						"systolic":    {Type: "integer", Minimum: float(60), Maximum: float(300)},
						"diastolic":   {Type: "integer", Minimum: float(30), Maximum: float(200)},
						"temperature": {Type: "number", Minimum: float(34), Maximum: float(43)},
					},
				},
				"symptoms": {
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"free_text": {Type: "string"},
						"checklist": {Type: "array", Items: &openapi.Schema{Type: "string"}},
						"duration":  {Type: "string"},
						"severity":  {Type: "string", Enum: []any{"mild", "moderate", "severe", "very severe"}},
					},
				},
				"user_mode": {Type: "string", Enum: []any{"general", "professional"}},
			},
		},
		"Report": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":               {Type: "string", Format: "uuid"},
				"risk_level":       {Type: "string", Enum: []any{"low", "moderate", "high", "critical"}},
				"risk_score":       {Type: "number"},
				"user_mode":        {Type: "string"},
				"immediate_action": {Type: "boolean"},
				"audio_label":      {Type: "string"},
				"recording_key":    {Type: "string"},
				"export_key":       {Type: "string"},
				"result":           {Type: "object", Description: "Full triage report"},
				"created_at":       {Type: "string", Format: "date-time"},
			},
		},
		"ReportPage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        {Type: "array", Items: openapi.SchemaRef("Report")},
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
				"has_next":    {Type: "boolean"},
			},
		},
		"ReportSearch": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"page":             {Type: "integer"},
				"page_size":        {Type: "integer"},
				"search":           {Type: "string"},
				"sort":             {Type: "string"},
				"risk_levels":      {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"user_mode":        {Type: "string"},
				"immediate_action": {Type: "boolean"},
				"audio_label":      {Type: "string"},
				"min_score":        {Type: "number"},
				"max_score":        {Type: "number"},
				"since":            {Type: "string", Format: "date-time"},
				"until":            {Type: "string", Format: "date-time"},
			},
		},
		"Options": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"normal_label": {Type: "string"},
				"audio_labels": {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"symptoms":     {Type: "array", Items: &openapi.Schema{Type: "object"}},
				"durations":    {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"severities":   {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"user_modes":   {Type: "array", Items: &openapi.Schema{Type: "string"}},
			},
		},
	},
}

func float(v float64) *float64 { return &v }
