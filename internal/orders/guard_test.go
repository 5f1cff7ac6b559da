package orders

import (
	"errors"
	"testing"
)

func TestAuthorize(t *testing.T) {
	if err := Authorize("seller-1", "seller-1"); err != nil {
		t.Fatalf("owner should be allowed, got %v", err)
	}

	err := Authorize("seller-1", "seller-2")
	var pe *PermissionError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PermissionError, got %v", err)
	}
	if pe.ActorID != "seller-1" || pe.SellerID != "seller-2" {
		t.Errorf("error should carry both ids, got %+v", pe)
	}
}
