package profile

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)
	tooFar := 120.0
	ok := 45.0

	tests := []struct {
		name   string
		doc    Document
		fields []string
	}{
		{
			name: "valid",
			doc:  Document{Name: "Ada", Description: "x", Address: "10 Downing St"},
		},
		{
			name:   "missing required",
			doc:    Document{Name: " ", Address: ""},
			fields: []string{"name", "description", "address"},
		},
		{
			name:   "nan latitude",
			doc:    Document{Name: "Ada", Description: "x", Address: "y", Location: Location{Lat: &nan, Lng: &ok}},
			fields: []string{"location.lat"},
		},
		{
			name:   "infinite longitude",
			doc:    Document{Name: "Ada", Description: "x", Address: "y", Location: Location{Lat: &ok, Lng: &inf}},
			fields: []string{"location.lng"},
		},
		{
			name:   "latitude out of range",
			doc:    Document{Name: "Ada", Description: "x", Address: "y", Location: Location{Lat: &tooFar}},
			fields: []string{"location.lat"},
		},
		{
			name:   "longitude in range",
			doc:    Document{Name: "Ada", Description: "x", Address: "y", Location: Location{Lng: &tooFar}},
			fields: nil,
		},
		{
			name:   "empty interest",
			doc:    Document{Name: "Ada", Description: "x", Address: "y", Interests: []string{"math", ""}},
			fields: []string{"interests.1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.doc)
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verr *StoreValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected StoreValidationError, got %v", err)
			}
			if len(verr.Fields) != len(tt.fields) {
				t.Fatalf("expected %d field errors, got %v", len(tt.fields), verr.Fields)
			}
			for i, f := range tt.fields {
				if verr.Fields[i].Field != f {
					t.Errorf("field %d: expected %s, got %s", i, f, verr.Fields[i].Field)
				}
			}
		})
	}
}

func TestStoreValidationErrorMessage(t *testing.T) {
	err := Validate(Document{Name: "Ada", Address: "y"})
	if err == nil {
		t.Fatal("expected error")
	}
	want := "profile validation failed: description: is required"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
	if !strings.HasPrefix(err.Error(), "profile validation failed") {
		t.Fatalf("unexpected prefix: %q", err.Error())
	}
}

func TestValidID(t *testing.T) {
	id, err := NewID()
	if err != nil {
		t.Fatalf("NewID: %v", err)
	}
	if !ValidID(id) {
		t.Fatalf("expected %s to be valid", id)
	}
	for _, bad := range []string{"", "abc", "{" + id + "}", "urn:uuid:" + id, strings.ReplaceAll(id, "-", "")} {
		if ValidID(bad) {
			t.Errorf("expected %q to be invalid", bad)
		}
	}
}
