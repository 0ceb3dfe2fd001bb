package idempotency

import (
	"context"
	"errors"
	"testing"
)

type fakeStore struct {
	status int
	body   map[string]any
	found  bool
	getErr error
	saveN  int
}

func (f *fakeStore) GetIdempotencyRecord(ctx context.Context, contractID, signerID, idempotencyKey, endpoint string) (int, map[string]any, bool, error) {
	if f.getErr != nil {
		return 0, nil, false, f.getErr
	}
	return f.status, f.body, f.found, nil
}

func (f *fakeStore) SaveIdempotencyRecord(ctx context.Context, contractID, signerID, idempotencyKey, endpoint string, responseStatus int, responseBody map[string]any) error {
	f.status = responseStatus
	f.body = responseBody
	f.found = true
	f.saveN++
	return nil
}

func TestReplayNoKeyNoop(t *testing.T) {
	st := &fakeStore{}
	_, _, replayed, err := Replay(context.Background(), st, SignerContext{
		ContractID:     "ctr_1",
		SignerID:       "sgn_1",
		IdempotencyKey: "",
	}, "POST /esign/contracts/sign")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if replayed {
		t.Fatalf("expected replayed=false without key")
	}
}

func TestSaveThenReplayReturnsSamePayload(t *testing.T) {
	st := &fakeStore{}
	signer := SignerContext{ContractID: "ctr_1", SignerID: "sgn_1", IdempotencyKey: "k1"}
	resp := map[string]any{"request_id": "req_1", "contract_status": "completed"}

	if err := Save(context.Background(), st, signer, "POST /esign/contracts/sign", 201, resp); err != nil {
		t.Fatalf("save err: %v", err)
	}
	if st.saveN != 1 {
		t.Fatalf("expected one save, got %d", st.saveN)
	}

	status, body, replayed, err := Replay(context.Background(), st, signer, "POST /esign/contracts/sign")
	if err != nil {
		t.Fatalf("replay err: %v", err)
	}
	if !replayed {
		t.Fatalf("expected replayed=true")
	}
	if status != 201 {
		t.Fatalf("expected status 201, got %d", status)
	}
	if body["request_id"] != "req_1" || body["contract_status"] != "completed" {
		t.Fatalf("unexpected replay body: %+v", body)
	}
}

func TestReplayStoreError(t *testing.T) {
	st := &fakeStore{getErr: errors.New("db down")}
	_, _, replayed, err := Replay(context.Background(), st, SignerContext{
		ContractID:     "ctr_1",
		SignerID:       "sgn_1",
		IdempotencyKey: "k1",
	}, "POST /esign/contracts/sign")
	if replayed {
		t.Fatalf("expected replayed=false on error")
	}
	if err == nil {
		t.Fatalf("expected error")
	}
}
