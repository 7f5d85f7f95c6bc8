package openapi

const (
	schemaPrefix   = "#/components/schemas/"
	responsePrefix = "#/components/responses/"
)

func SchemaRef(name string) *Schema {
	return &Schema{Ref: schemaPrefix + name}
}

func ResponseRef(name string) *Response {
	return &Response{Ref: responsePrefix + name}
}

func jsonContent(schemaName string) map[string]*MediaType {
	return map[string]*MediaType{
		"application/json": {Schema: SchemaRef(schemaName)},
	}
}

// RequestBodyJSON documents a JSON body shaped like the named schema.
func RequestBodyJSON(schemaName string, required bool) *RequestBody {
	return &RequestBody{Required: required, Content: jsonContent(schemaName)}
}

// ResponseJSON documents a JSON response shaped like the named schema.
func ResponseJSON(description, schemaName string) *Response {
	return &Response{Description: description, Content: jsonContent(schemaName)}
}

// PathParam documents a required UUID path segment.
func PathParam(name, description string) *Parameter {
	return &Parameter{
		Name:        name,
		In:          "path",
		Required:    true,
		Description: description,
		Schema:      &Schema{Type: "string", Format: "uuid"},
	}
}

func QueryParam(name, typ, description string, required bool) *Parameter {
	return &Parameter{
		Name:        name,
		In:          "query",
		Required:    required,
		Description: description,
		Schema:      &Schema{Type: typ},
	}
}

// QueryEnum documents an optional string query parameter limited to values.
func QueryEnum(name, description string, values ...string) *Parameter {
	p := QueryParam(name, "string", description, false)
	for _, v := range values {
		p.Schema.Enum = append(p.Schema.Enum, v)
	}
	return p
}

// Range bounds a numeric parameter inclusively.
func (p *Parameter) Range(lo, hi float64) *Parameter {
	p.Schema.Minimum = &lo
	p.Schema.Maximum = &hi
	return p
}

// Formatted sets the schema format, such as "date-time".
func (p *Parameter) Formatted(format string) *Parameter {
	p.Schema.Format = format
	return p
}
