package models

import "testing"

func TestParseMethod(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   Method
		wantOK bool
	}{
		{name: "lowercase get", raw: "get", want: MethodGet, wantOK: true},
		{name: "mixed case patch", raw: "Patch", want: MethodPatch, wantOK: true},
		{name: "padded delete", raw: " delete ", want: MethodDelete, wantOK: true},
		{name: "options", raw: "OPTIONS", want: MethodOptions, wantOK: true},
		{name: "path item parameters key", raw: "parameters", wantOK: false},
		{name: "ref key", raw: "$ref", wantOK: false},
		{name: "empty", raw: "", wantOK: false},
		{name: "garbage", raw: "FETCH", wantOK: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMethod(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok && got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestEndpointValidate(t *testing.T) {
	tests := []struct {
		name     string
		endpoint Endpoint
		wantErr  bool
	}{
		{name: "valid", endpoint: Endpoint{Method: MethodGet, Path: "/health"}},
		{name: "valid with placeholder", endpoint: Endpoint{Method: MethodPatch, Path: "/users/{userId}"}},
		{name: "unknown method", endpoint: Endpoint{Method: "YEET", Path: "/x"}, wantErr: true},
		{name: "lowercase method is not canonical", endpoint: Endpoint{Method: "get", Path: "/x"}, wantErr: true},
		{name: "empty path", endpoint: Endpoint{Method: MethodGet, Path: ""}, wantErr: true},
		{name: "blank path", endpoint: Endpoint{Method: MethodGet, Path: "   "}, wantErr: true},
		{name: "relative path", endpoint: Endpoint{Method: MethodGet, Path: "users"}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := tt.endpoint.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestEndpointKey(t *testing.T) {
	ep := Endpoint{Method: MethodDelete, Path: "/admin/accounts/{id}"}
	if ep.Key() != "DELETE /admin/accounts/{id}" {
		t.Fatalf("unexpected key %q", ep.Key())
	}
}
