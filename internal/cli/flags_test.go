package cli

import (
	"reflect"
	"testing"
)

func TestNewFlags(t *testing.T) {
	flags := NewFlags()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Limit", flags.Limit, 10},
		{"Format", flags.Format, "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.expected) {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}

	// Test boolean defaults (should be false)
	boolTests := []struct {
		name  string
		value bool
	}{
		{"NoContext", flags.NoContext},
		{"NoIdioms", flags.NoIdioms},
		{"Background", flags.Background},
	}

	for _, tt := range boolTests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value {
				t.Errorf("%s = %v, want false", tt.name, tt.value)
			}
		})
	}

	// Test string defaults (should be empty)
	stringTests := []struct {
		name  string
		value string
	}{
		{"CfgFile", flags.CfgFile},
		{"User", flags.User},
		{"Address", flags.Address},
		{"File", flags.File},
		{"Style", flags.Style},
		{"Topic", flags.Topic},
	}

	for _, tt := range stringTests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Errorf("%s = %v, want empty string", tt.name, tt.value)
			}
		})
	}

	if len(flags.Languages) != 0 {
		t.Errorf("Languages = %v, want empty", flags.Languages)
	}
}
