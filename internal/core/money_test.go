package core

import (
	"errors"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "dot separator", input: "12.34", want: 1234},
		{name: "comma separator", input: "12,34", want: 1234},
		{name: "integer only", input: "100", want: 10000},
		{name: "single fractional digit", input: "5.5", want: 550},
		{name: "third decimal rounds up", input: "12.346", want: 1235},
		{name: "third decimal rounds down", input: "12.344", want: 1234},
		{name: "half rounds up", input: "12.345", want: 1235},
		{name: "leading dot", input: ".50", want: 50},
		{name: "whitespace trimmed", input: "  7.25  ", want: 725},
		{name: "empty", input: "", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "zero decimal", input: "0.00", wantErr: true},
		{name: "negative", input: "-5.00", wantErr: true},
		{name: "explicit plus", input: "+5.00", wantErr: true},
		{name: "letters", input: "abc", wantErr: true},
		{name: "two separators", input: "1.2.3", wantErr: true},
		{name: "mixed digits and letters", input: "12a.50", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Errorf("ParseDecimalToCents(%q) error = %v, want ErrInvalidAmount", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalToCents(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoney_Validate(t *testing.T) {
	if err := (Money{Cents: 100}).Validate(); err != nil {
		t.Errorf("positive money: %v", err)
	}
	if err := (Money{}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero money error = %v, want ErrInvalidAmount", err)
	}
	if err := (Money{Cents: -1}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative money error = %v, want ErrInvalidAmount", err)
	}
}

func TestMoney_Units(t *testing.T) {
	if got := (Money{Cents: 1234}).Units(); got != 12.34 {
		t.Errorf("Units() = %v, want 12.34", got)
	}
}
