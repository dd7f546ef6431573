package hub_test

import (
	"testing"
	"time"

	"previewhub/internal/database"
	"previewhub/internal/hub"
	"previewhub/internal/model"
	"previewhub/internal/registry"
	"previewhub/internal/testutil"
)

func TestGetHistory(t *testing.T) {
	clock := testutil.FixedClock()
	history, err := database.NewSQLiteHistory(":memory:", clock)
	if err != nil {
		t.Fatalf("NewSQLiteHistory() error = %v", err)
	}
	defer history.Close()

	for _, name := range []string{"create-client", "rebuild"} {
		op, err := history.StartOperation(name, "")
		if err != nil {
			t.Fatalf("StartOperation() error = %v", err)
		}
		if err := history.FinishOperation(op.ID, model.OperationSuccess); err != nil {
			t.Fatalf("FinishOperation() error = %v", err)
		}
		clock.Advance(time.Minute)
	}

	svc := hub.NewHubService(registry.NewMemoryStore(), nil, history, clock, testutil.NewStubIDGenerator(), nil)
	ops, err := svc.GetHistory(10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(ops) != 2 || ops[0].Name != "rebuild" || ops[1].Name != "create-client" {
		t.Errorf("GetHistory() = %+v, want rebuild then create-client", ops)
	}
}
