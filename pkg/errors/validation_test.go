package errors

import (
	"testing"
)

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "lodash", false},
		{"valid with dash", "my-package", false},
		{"valid with dot", "my.package", false},
		{"valid scoped npm", "@scope/package", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"path traversal ..", "foo/../bar", true},
		{"path traversal //", "foo//bar", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateNpmPackageName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"express", false},
		{"@types/node", false},
		{"lodash.merge", false},
		{"Express", true},
		{"@scope/", true},
		{"has space", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateNpmPackageName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNpmPackageName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePackageKey(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"lodash@4.17.21", false},
		{"@types/geojson@7946.0.16", false},
		{"left-pad@unknown", false},
		{"JSONStream@1.3.5", false},

		{"lodash", true},
		{"@types/node", true},
		{"lodash@", true},
		{"@1.0.0", true},
		{"../etc@1.0.0", true},
		{"lodash@1.0.0 beta", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidatePackageKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPackage) {
				t.Errorf("ValidatePackageKey(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidPackage)
			}
		})
	}
}
