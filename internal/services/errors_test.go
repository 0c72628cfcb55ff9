package services_test

import (
	"errors"
	"testing"

	"docket/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("connection refused")
	err := services.Wrap(services.ErrTimeout, "extractor", "upload", "request failed", cause)

	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause preserved, got %v", err)
	}
	want := "timeout: extractor: upload: request failed: connection refused"
	if err.Error() != want {
		t.Fatalf("unexpected message:\n got %q\nwant %q", err.Error(), want)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "extractor", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient default, got %v", err)
	}
}

func TestIsPermanent(t *testing.T) {
	if services.IsPermanent(services.Wrap(services.ErrTimeout, "s", "op", "", nil)) {
		t.Fatal("timeout should be retryable")
	}
	if !services.IsPermanent(services.Wrap(services.ErrConfiguration, "s", "op", "", nil)) {
		t.Fatal("configuration errors should be permanent")
	}
	if !services.IsPermanent(services.Wrap(services.ErrValidation, "s", "op", "", nil)) {
		t.Fatal("validation errors should be permanent")
	}
}
