// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

package validation

import (
	"strings"
	"testing"
)

type searchRequest struct {
	Limit  int    `validate:"min=1,max=100"`
	Offset int    `validate:"min=0"`
	Email  string `validate:"omitempty,email"`
}

func TestValidateStructPasses(t *testing.T) {
	req := searchRequest{Limit: 10, Offset: 0}
	if verr := ValidateStruct(&req); verr != nil {
		t.Errorf("expected no error, got %v", verr)
	}
}

func TestValidateStructLimitTooHigh(t *testing.T) {
	req := searchRequest{Limit: 500, Offset: 0}

	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if len(verr.Errors()) != 1 {
		t.Fatalf("expected 1 error, got %d", len(verr.Errors()))
	}
	if verr.Errors()[0].Field() != "Limit" {
		t.Errorf("expected Limit field, got %s", verr.Errors()[0].Field())
	}
	if !strings.Contains(verr.Error(), "at most 100") {
		t.Errorf("expected translated message, got %q", verr.Error())
	}
}

func TestValidateStructNegativeOffset(t *testing.T) {
	req := searchRequest{Limit: 10, Offset: -1}

	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected validation error")
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR code, got %s", apiErr.Code)
	}
	if apiErr.Details["field"] != "Offset" {
		t.Errorf("expected Offset in details, got %v", apiErr.Details)
	}
}

func TestValidateStructMultipleErrors(t *testing.T) {
	req := searchRequest{Limit: 0, Offset: -5, Email: "not-an-email"}

	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if len(verr.Errors()) != 3 {
		t.Fatalf("expected 3 errors, got %d", len(verr.Errors()))
	}

	apiErr := verr.ToAPIError()
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("expected fields list in multi-error details")
	}
}

func TestGetValidatorIsSingleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("expected the same validator instance")
	}
}
