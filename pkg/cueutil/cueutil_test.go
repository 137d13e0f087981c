// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

func TestCheckFileSize(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		max     int64
		wantErr bool
	}{
		{name: "under limit", size: 10, max: 100, wantErr: false},
		{name: "at limit", size: 100, max: 100, wantErr: false},
		{name: "over limit", size: 101, max: 100, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckFileSize(make([]byte, tt.size), tt.max, "test.cue")
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckFileSize() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFormatError(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		if got := FormatError(nil, "test.cue"); got != nil {
			t.Errorf("FormatError(nil) = %v, want nil", got)
		}
	})

	t.Run("cue validation error carries path", func(t *testing.T) {
		ctx := cuecontext.New()
		schema := ctx.CompileString(`#Config: {device?: "auto" | "mps" | "cuda" | "cpu"}`)
		user := ctx.CompileString(`device: "tpu"`)

		unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(user)
		err := unified.Validate(cue.Concrete(false))
		if err == nil {
			t.Fatal("expected validation error")
		}

		formatted := FormatError(err, "config.cue")
		if !strings.Contains(formatted.Error(), "config.cue") {
			t.Errorf("formatted error missing file path: %v", formatted)
		}
		if !strings.Contains(formatted.Error(), "device") {
			t.Errorf("formatted error missing field path: %v", formatted)
		}
	})
}

func TestFormatPath(t *testing.T) {
	tests := []struct {
		path []string
		want string
	}{
		{path: nil, want: ""},
		{path: []string{"device"}, want: "device"},
		{path: []string{"converter", "tool"}, want: "converter.tool"},
		{path: []string{"items", "0", "name"}, want: "items[0].name"},
	}

	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
