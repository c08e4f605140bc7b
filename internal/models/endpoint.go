package models

import (
	"fmt"
	"strings"
)

// Method is a canonical HTTP verb as it appears in a spec path item.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
	MethodOptions Method = "OPTIONS"
	MethodHead    Method = "HEAD"
)

// ValidMethods defines the verbs extracted from spec documents. Path-item
// keys outside this set (parameters, $ref, vendor extensions) are skipped.
var ValidMethods = map[Method]bool{
	MethodGet:     true,
	MethodPost:    true,
	MethodPut:     true,
	MethodPatch:   true,
	MethodDelete:  true,
	MethodOptions: true,
	MethodHead:    true,
}

// ParseMethod normalizes a raw verb and reports whether it is canonical.
func ParseMethod(raw string) (Method, bool) {
	m := Method(strings.ToUpper(strings.TrimSpace(raw)))
	return m, ValidMethods[m]
}

// Parameter locations within an operation.
const (
	ParamInPath  = "path"
	ParamInQuery = "query"
	ParamInBody  = "body"
)

// Parameter describes a single declared input of an operation.
type Parameter struct {
	Name     string `json:"name"`
	In       string `json:"in"`             // path, query, body
	Type     string `json:"type,omitempty"` // integer, number, string, boolean
	Required bool   `json:"required,omitempty"`
}

// Endpoint is the atomic unit of analysis: one operation on one path.
// Identity is (Method, Path); parameter and auth metadata enrich rule
// input but never participate in identity. Endpoints are value objects
// and are never mutated after extraction.
type Endpoint struct {
	Method       Method      `json:"method"`
	Path         string      `json:"path"`
	Parameters   []Parameter `json:"parameters,omitempty"`
	AuthRequired bool        `json:"auth_required,omitempty"`
	Description  string      `json:"description,omitempty"`
}

// Key returns the identity string used for grouping.
func (e Endpoint) Key() string {
	return string(e.Method) + " " + e.Path
}

// Validate reports why an endpoint cannot enter analysis. Invalid
// endpoints are skipped per-endpoint, never fatal on their own.
func (e Endpoint) Validate() error {
	if !ValidMethods[e.Method] {
		return fmt.Errorf("unsupported method %q", string(e.Method))
	}
	if strings.TrimSpace(e.Path) == "" {
		return fmt.Errorf("empty path")
	}
	if !strings.HasPrefix(e.Path, "/") {
		return fmt.Errorf("path %q does not start with /", e.Path)
	}
	return nil
}
