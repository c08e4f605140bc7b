package openapi

import (
	"testing"

	"github.com/apivet/apivet/internal/models"
)

const sampleSpec = `{
  "openapi": "3.0.0",
  "info": {"title": "Sample", "version": "1.0.0"},
  "security": [{"bearerAuth": []}],
  "paths": {
    "/zebra/{zebraId}": {
      "get": {
        "description": "Fetch a zebra",
        "parameters": [
          {"name": "zebraId", "in": "path", "required": true, "schema": {"type": "integer"}},
          {"name": "verbose", "in": "query", "schema": {"type": "boolean"}}
        ]
      },
      "delete": {}
    },
    "/alpha": {
      "post": {
        "security": [],
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["name"],
                "properties": {
                  "name": {"type": "string"},
                  "age": {"type": "integer"}
                }
              }
            }
          }
        }
      },
      "parameters": [{"name": "ignored", "in": "query"}]
    },
    "/health": {
      "get": {"security": []}
    }
  }
}`

func TestExtractDocumentOrder(t *testing.T) {
	endpoints, err := Extract([]byte(sampleSpec))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"GET /zebra/{zebraId}",
		"DELETE /zebra/{zebraId}",
		"POST /alpha",
		"GET /health",
	}
	if len(endpoints) != len(want) {
		t.Fatalf("expected %d endpoints, got %d: %+v", len(want), len(endpoints), endpoints)
	}
	for i, key := range want {
		if endpoints[i].Key() != key {
			t.Errorf("endpoint %d: expected %q, got %q", i, key, endpoints[i].Key())
		}
	}
}

func TestExtractParameters(t *testing.T) {
	endpoints, err := Extract([]byte(sampleSpec))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	get := endpoints[0]
	if len(get.Parameters) != 2 {
		t.Fatalf("expected 2 parameters, got %+v", get.Parameters)
	}
	if get.Parameters[0].Name != "zebraId" || get.Parameters[0].In != models.ParamInPath {
		t.Errorf("unexpected first parameter: %+v", get.Parameters[0])
	}
	if get.Parameters[0].Type != "integer" || !get.Parameters[0].Required {
		t.Errorf("expected required integer, got %+v", get.Parameters[0])
	}
	if get.Parameters[1].Name != "verbose" || get.Parameters[1].In != models.ParamInQuery {
		t.Errorf("unexpected second parameter: %+v", get.Parameters[1])
	}
	if get.Description != "Fetch a zebra" {
		t.Errorf("expected description to survive, got %q", get.Description)
	}
}

func TestExtractRequestBodyProperties(t *testing.T) {
	endpoints, err := Extract([]byte(sampleSpec))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	post := endpoints[2]
	if post.Method != models.MethodPost {
		t.Fatalf("expected POST /alpha at index 2, got %s", post.Key())
	}
	if len(post.Parameters) != 2 {
		t.Fatalf("expected 2 body parameters, got %+v", post.Parameters)
	}
	// Body properties come back sorted by name.
	if post.Parameters[0].Name != "age" || post.Parameters[0].Type != "integer" {
		t.Errorf("unexpected first body parameter: %+v", post.Parameters[0])
	}
	if post.Parameters[1].Name != "name" || !post.Parameters[1].Required {
		t.Errorf("expected name to be required, got %+v", post.Parameters[1])
	}
	for _, p := range post.Parameters {
		if p.In != models.ParamInBody {
			t.Errorf("expected body location, got %+v", p)
		}
	}
}

func TestExtractAuthRequired(t *testing.T) {
	endpoints, err := Extract([]byte(sampleSpec))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Global security applies when the operation declares none.
	if !endpoints[0].AuthRequired {
		t.Errorf("expected GET /zebra/{zebraId} to inherit global security")
	}
	// An explicitly empty security list opts the operation out.
	if endpoints[2].AuthRequired {
		t.Errorf("expected POST /alpha to be open")
	}
	if endpoints[3].AuthRequired {
		t.Errorf("expected GET /health to be open")
	}
}

func TestExtractSwagger2(t *testing.T) {
	spec := `{
  "swagger": "2.0",
  "info": {"title": "Legacy", "version": "1.0"},
  "paths": {
    "/users/{userId}": {
      "put": {
        "parameters": [
          {"name": "userId", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`

	endpoints, err := Extract([]byte(spec))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(endpoints) != 1 {
		t.Fatalf("expected 1 endpoint, got %+v", endpoints)
	}
	if endpoints[0].Key() != "PUT /users/{userId}" {
		t.Errorf("unexpected endpoint: %s", endpoints[0].Key())
	}
	if len(endpoints[0].Parameters) != 1 || endpoints[0].Parameters[0].Type != "integer" {
		t.Errorf("expected converted integer parameter, got %+v", endpoints[0].Parameters)
	}
}

func TestExtractInvalidJSON(t *testing.T) {
	if _, err := Extract([]byte("not json")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestExtractNoPaths(t *testing.T) {
	endpoints, err := Extract([]byte(`{"openapi": "3.0.0", "info": {"title": "x", "version": "1"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(endpoints) != 0 {
		t.Fatalf("expected no endpoints, got %+v", endpoints)
	}
}

func TestOperationOrderSkipsNonVerbKeys(t *testing.T) {
	doc := `{
  "openapi": "3.0.0",
  "paths": {
    "/a": {
      "parameters": [{"name": "x", "in": "query"}],
      "x-internal": true,
      "post": {},
      "get": {}
    }
  }
}`

	order, err := operationOrder([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 {
		t.Fatalf("expected 2 operations, got %+v", order)
	}
	if order[0].method != models.MethodPost || order[1].method != models.MethodGet {
		t.Errorf("expected document order [POST GET], got %+v", order)
	}
}

func TestOperationOrderUnknownType(t *testing.T) {
	// Unknown shapes under paths must not wedge the walk.
	doc := `{"openapi": "3.0.0", "paths": {"/ref": "somewhere", "/a": {"get": {}}}}`

	order, err := operationOrder([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 1 || order[0].path != "/a" {
		t.Fatalf("expected only /a, got %+v", order)
	}
}
