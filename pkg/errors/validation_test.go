package errors

import (
	"strings"
	"testing"
)

func TestValidateDatasetName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "x", false},
		{"valid with spaces", "time (s)", false},
		{"valid with dash", "run-4", false},
		{"valid unicode", "Δt", false},
		{"valid max length", strings.Repeat("x", 256), false},

		{"empty", "", true},
		{"too long", strings.Repeat("x", 257), true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
		{"null byte", "foo\x00bar", true},
		{"backquote", "foo`bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatasetName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDatasetName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && GetCode(err) != ErrCodeInvalidName {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidName)
			}
		})
	}
}

func TestValidateWidgetName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "graph1", false},
		{"valid with underscore", "my_graph", false},
		{"valid with dash", "x-axis", false},

		{"empty", "", true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"space", "a b", true},
		{"tab", "a\tb", true},
		{"dot", ".", true},
		{"dotdot", "..", true},
		{"control char", "a\x01b", true},
		{"too long", strings.Repeat("x", 129), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWidgetName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWidgetName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateWidgetPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"root", "/", false},
		{"page", "/page1", false},
		{"nested", "/page1/graph1/x", false},

		{"empty", "", true},
		{"relative", "page1/graph1", true},
		{"empty segment", "/page1//graph1", true},
		{"trailing slash", "/page1/", true},
		{"segment with space", "/page 1", true},
		{"dotdot segment", "/page1/../page2", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWidgetPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWidgetPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && GetCode(err) != ErrCodeInvalidPath {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}

func TestValidateTag(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "imported", false},
		{"valid with dash", "run-4", false},

		{"empty", "", true},
		{"space", "a b", true},
		{"control char", "a\x01b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTag(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTag(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
