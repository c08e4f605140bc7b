package openapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/rs/zerolog/log"

	"github.com/apivet/apivet/internal/models"
)

// Extract parses a Swagger/OpenAPI JSON document into normalized
// endpoints. Swagger 2.0 documents are converted to OpenAPI 3 first.
// Endpoints come back in document order so repeated runs over the same
// spec produce identical output.
func Extract(data []byte) ([]models.Endpoint, error) {
	doc, err := load(data)
	if err != nil {
		return nil, err
	}

	order, err := operationOrder(data)
	if err != nil {
		return nil, fmt.Errorf("walk spec paths: %w", err)
	}

	if doc.Paths == nil || len(order) == 0 {
		return nil, nil
	}

	pathItems := doc.Paths.Map()
	endpoints := make([]models.Endpoint, 0, len(order))
	for _, ref := range order {
		item := pathItems[ref.path]
		if item == nil {
			continue
		}
		op := item.GetOperation(string(ref.method))
		if op == nil {
			continue
		}
		endpoints = append(endpoints, buildEndpoint(doc, ref.path, ref.method, op))
	}

	log.Debug().Int("endpoints", len(endpoints)).Msg("extracted endpoints from spec")
	return endpoints, nil
}

// load parses the document, converting Swagger 2.0 to OpenAPI 3.
func load(data []byte) (*openapi3.T, error) {
	var sniff struct {
		Swagger string `json:"swagger"`
		OpenAPI string `json:"openapi"`
	}
	if err := json.Unmarshal(data, &sniff); err != nil {
		return nil, fmt.Errorf("spec is not valid JSON: %w", err)
	}

	if strings.HasPrefix(sniff.Swagger, "2") {
		var doc2 openapi2.T
		if err := json.Unmarshal(data, &doc2); err != nil {
			return nil, fmt.Errorf("parse swagger 2.0 document: %w", err)
		}
		doc, err := openapi2conv.ToV3(&doc2)
		if err != nil {
			return nil, fmt.Errorf("convert swagger 2.0 document: %w", err)
		}
		return doc, nil
	}

	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	return doc, nil
}

func buildEndpoint(doc *openapi3.T, path string, method models.Method, op *openapi3.Operation) models.Endpoint {
	ep := models.Endpoint{
		Method:       method,
		Path:         path,
		AuthRequired: authRequired(doc, op),
		Description:  op.Description,
	}

	for _, ref := range op.Parameters {
		p := ref.Value
		if p == nil {
			continue
		}
		ep.Parameters = append(ep.Parameters, models.Parameter{
			Name:     p.Name,
			In:       p.In,
			Type:     schemaType(p.Schema),
			Required: p.Required,
		})
	}

	ep.Parameters = append(ep.Parameters, bodyParameters(op.RequestBody)...)
	return ep
}

// authRequired mirrors how operations inherit document-level security:
// an operation-level security list overrides the global one, and an
// explicitly empty list means the operation is open.
func authRequired(doc *openapi3.T, op *openapi3.Operation) bool {
	if op.Security != nil {
		return len(*op.Security) > 0
	}
	return len(doc.Security) > 0
}

// bodyParameters flattens object properties of the request body into
// parameters. Properties are sorted by name since schema maps carry no
// order.
func bodyParameters(ref *openapi3.RequestBodyRef) []models.Parameter {
	if ref == nil || ref.Value == nil {
		return nil
	}

	var params []models.Parameter
	for _, contentType := range sortedKeys(ref.Value.Content) {
		media := ref.Value.Content[contentType]
		if media == nil || media.Schema == nil || media.Schema.Value == nil {
			continue
		}
		schema := media.Schema.Value
		for _, name := range sortedKeys(schema.Properties) {
			params = append(params, models.Parameter{
				Name:     name,
				In:       models.ParamInBody,
				Type:     schemaType(schema.Properties[name]),
				Required: propertyRequired(name, schema.Required),
			})
		}
	}
	return params
}

func schemaType(ref *openapi3.SchemaRef) string {
	if ref == nil || ref.Value == nil || ref.Value.Type == nil {
		return "unknown"
	}
	types := ref.Value.Type.Slice()
	if len(types) == 0 {
		return "unknown"
	}
	return types[0]
}

func propertyRequired(name string, required []string) bool {
	for _, r := range required {
		if r == name {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// operationRef locates one operation inside the raw document.
type operationRef struct {
	path   string
	method models.Method
}

// operationOrder walks the raw JSON and records operations in document
// order. The loaded model stores paths in a map, which loses the order
// the author wrote them in, so the raw bytes are the only source of a
// stable sequence.
func operationOrder(data []byte) ([]operationRef, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("spec root is not a JSON object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		if key != "paths" {
			if err := skipValue(dec); err != nil {
				return nil, err
			}
			continue
		}
		return pathsOrder(dec)
	}
	return nil, nil
}

// pathsOrder consumes the value of the "paths" key.
func pathsOrder(dec *json.Decoder) ([]operationRef, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return nil, nil
	}
	if d == '[' {
		return nil, drainDelim(dec)
	}

	var order []operationRef
	for dec.More() {
		pathTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		path, _ := pathTok.(string)

		methods, err := pathItemMethods(dec)
		if err != nil {
			return nil, err
		}
		for _, m := range methods {
			order = append(order, operationRef{path: path, method: m})
		}
	}
	_, err = dec.Token()
	return order, err
}

// pathItemMethods consumes one path-item value and returns its verb
// keys in document order. Non-verb keys (parameters, $ref, vendor
// extensions) are skipped.
func pathItemMethods(dec *json.Decoder) ([]models.Method, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return nil, nil
	}
	if d == '[' {
		return nil, drainDelim(dec)
	}

	var methods []models.Method
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		if m, valid := models.ParseMethod(key); valid {
			methods = append(methods, m)
		}
		if err := skipValue(dec); err != nil {
			return nil, err
		}
	}
	_, err = dec.Token()
	return methods, err
}

// skipValue consumes one JSON value of any shape.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); ok && (d == '{' || d == '[') {
		return drainDelim(dec)
	}
	return nil
}

// drainDelim consumes tokens until the already-opened delimiter closes.
func drainDelim(dec *json.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
