package pkguid

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDGenerate(t *testing.T) {
	var gen StringID = NewUUID()

	id, err := uuid.Parse(gen.Generate())
	if err != nil {
		t.Fatalf("expected valid uuid: %v", err)
	}
	if id.Version() != 7 {
		t.Fatalf("expected version 7, got %d", id.Version())
	}
}
