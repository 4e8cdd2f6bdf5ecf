package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/swaggo/swag"

	"github.com/dafibh/gastify/gastify-backend/docs"
)

// OpenAPI3Spec represents an OpenAPI 3.0 spec structure
type OpenAPI3Spec struct {
	OpenAPI    string                 `json:"openapi"`
	Info       map[string]interface{} `json:"info"`
	Servers    []Server               `json:"servers"`
	Paths      map[string]interface{} `json:"paths"`
	Components map[string]interface{} `json:"components,omitempty"`
}

// Server represents an OpenAPI 3.0 server
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// OpenAPIServers are the servers advertised in the OpenAPI 3.0 document
var OpenAPIServers = []Server{
	{URL: "http://localhost:8080/api/v1", Description: "Local Development"},
}

// rewriteRefs points every $ref at components/schemas
func rewriteRefs(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if ref, ok := value.(string); ok && key == "$ref" {
				out[key] = strings.Replace(ref, "#/definitions/", "#/components/schemas/", 1)
				continue
			}
			out[key] = rewriteRefs(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = rewriteRefs(item)
		}
		return out
	default:
		return data
	}
}

// parameterSchema moves the type fields of a 2.0 parameter into a schema
func parameterSchema(param map[string]interface{}) map[string]interface{} {
	schema := make(map[string]interface{})
	for _, field := range []string{"type", "format", "enum", "default", "minimum", "maximum", "items"} {
		if val, ok := param[field]; ok {
			schema[field] = rewriteRefs(val)
		}
	}
	if schema["type"] == "file" {
		schema["type"] = "string"
		schema["format"] = "binary"
	}
	return schema
}

// convertOperation rewrites one operation: body and formData parameters become
// a requestBody and response schemas move under content.
func convertOperation(op map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(op))
	for key, value := range op {
		switch key {
		case "parameters", "responses", "consumes", "produces":
		default:
			out[key] = rewriteRefs(value)
		}
	}

	var (
		params    []interface{}
		formReq   []interface{}
		hasFile   bool
		bodyParam map[string]interface{}
	)
	form := make(map[string]interface{})
	list, _ := op["parameters"].([]interface{})
	for _, raw := range list {
		param, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		switch param["in"] {
		case "body":
			bodyParam = param
		case "formData":
			name, _ := param["name"].(string)
			form[name] = parameterSchema(param)
			if param["type"] == "file" {
				hasFile = true
			}
			if req, _ := param["required"].(bool); req {
				formReq = append(formReq, name)
			}
		default:
			converted := make(map[string]interface{})
			for _, field := range []string{"name", "in", "description", "required"} {
				if val, ok := param[field]; ok {
					converted[field] = val
				}
			}
			if schema := parameterSchema(param); len(schema) > 0 {
				converted["schema"] = schema
			}
			params = append(params, converted)
		}
	}
	if len(params) > 0 {
		out["parameters"] = params
	}

	switch {
	case bodyParam != nil:
		out["requestBody"] = map[string]interface{}{
			"required":    bodyParam["required"],
			"description": bodyParam["description"],
			"content": map[string]interface{}{
				"application/json": map[string]interface{}{"schema": rewriteRefs(bodyParam["schema"])},
			},
		}
	case len(form) > 0:
		mediaType := "application/x-www-form-urlencoded"
		if hasFile {
			mediaType = "multipart/form-data"
		}
		schema := map[string]interface{}{"type": "object", "properties": form}
		if len(formReq) > 0 {
			schema["required"] = formReq
		}
		out["requestBody"] = map[string]interface{}{
			"content": map[string]interface{}{mediaType: map[string]interface{}{"schema": schema}},
		}
	}

	responses := make(map[string]interface{})
	rawResponses, _ := op["responses"].(map[string]interface{})
	for code, raw := range rawResponses {
		resp, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		converted := map[string]interface{}{"description": resp["description"]}
		if converted["description"] == nil {
			status, _ := strconv.Atoi(code)
			converted["description"] = http.StatusText(status)
		}
		if schema, ok := resp["schema"]; ok {
			converted["content"] = map[string]interface{}{
				"application/json": map[string]interface{}{"schema": rewriteRefs(schema)},
			}
		}
		responses[code] = converted
	}
	out["responses"] = responses

	return out
}

// ServeOpenAPI3Spec serves the swagger spec converted to OpenAPI 3.0
func ServeOpenAPI3Spec(c echo.Context) error {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		return NewInternalError(c, "Failed to read swagger doc")
	}

	var swagger2 map[string]interface{}
	if err := json.Unmarshal([]byte(doc), &swagger2); err != nil {
		return NewInternalError(c, "Failed to parse swagger doc")
	}

	info, _ := swagger2["info"].(map[string]interface{})

	paths := make(map[string]interface{})
	rawPaths, _ := swagger2["paths"].(map[string]interface{})
	for path, raw := range rawPaths {
		ops, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		converted := make(map[string]interface{}, len(ops))
		for method, rawOp := range ops {
			if op, ok := rawOp.(map[string]interface{}); ok {
				converted[method] = convertOperation(op)
			}
		}
		paths[path] = converted
	}

	components := make(map[string]interface{})
	if secDefs, ok := swagger2["securityDefinitions"].(map[string]interface{}); ok {
		components["securitySchemes"] = secDefs
	}
	if definitions, ok := swagger2["definitions"].(map[string]interface{}); ok {
		components["schemas"] = rewriteRefs(definitions)
	}

	return c.JSON(http.StatusOK, OpenAPI3Spec{
		OpenAPI:    "3.0.3",
		Info:       info,
		Servers:    OpenAPIServers,
		Paths:      paths,
		Components: components,
	})
}
