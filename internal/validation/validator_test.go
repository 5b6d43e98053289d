// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package validation

import (
	"errors"
	"strings"
	"testing"
)

type sample struct {
	Name   string         `json:"name" validate:"required,max=8"`
	Count  int            `json:"count" validate:"gte=0"`
	Period string         `json:"period" validate:"omitempty,period"`
	Items  map[string]int `json:"items" validate:"omitempty,dive,keys,period,endkeys,gte=0"`
}

func TestValidateStructOK(t *testing.T) {
	s := sample{Name: "alice", Period: "6month", Items: map[string]int{"overall": 3}}
	if err := ValidateStruct(&s); err != nil {
		t.Errorf("expected valid struct, got %v", err)
	}
}

func TestValidateStructErrors(t *testing.T) {
	s := sample{Name: "", Count: -1, Period: "1year", Items: map[string]int{"weekly": 1}}

	err := ValidateStruct(&s)
	var ve *RequestValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *RequestValidationError, got %T", err)
	}
	if len(ve.Errors()) != 4 {
		t.Errorf("expected 4 field errors, got %d: %v", len(ve.Errors()), ve)
	}

	msg := ve.Error()
	for _, want := range []string{"name is required", "count must be greater than or equal to 0", "period must be one of"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

func TestValidateStructMaxLength(t *testing.T) {
	err := ValidateStruct(&sample{Name: "much-too-long"})
	if err == nil || !strings.Contains(err.Error(), "name must be at most 8 characters") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestGetValidatorSingleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("expected the same validator instance")
	}
}
