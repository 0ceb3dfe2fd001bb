// Package idempotency replays stored responses for repeated POSTs carrying
// the same Idempotency-Key. Records are scoped to the contract, signer, and
// endpoint so a key cannot leak a response across signers.
package idempotency

import "context"

type SignerContext struct {
	ContractID     string
	SignerID       string
	IdempotencyKey string
}

type Store interface {
	GetIdempotencyRecord(ctx context.Context, contractID, signerID, idempotencyKey, endpoint string) (int, map[string]any, bool, error)
	SaveIdempotencyRecord(ctx context.Context, contractID, signerID, idempotencyKey, endpoint string, responseStatus int, responseBody map[string]any) error
}

func Replay(ctx context.Context, st Store, signer SignerContext, endpoint string) (int, map[string]any, bool, error) {
	if signer.IdempotencyKey == "" {
		return 0, nil, false, nil
	}
	status, body, found, err := st.GetIdempotencyRecord(ctx, signer.ContractID, signer.SignerID, signer.IdempotencyKey, endpoint)
	if err != nil {
		return 0, nil, false, err
	}
	if !found {
		return 0, nil, false, nil
	}
	return status, body, true, nil
}

func Save(ctx context.Context, st Store, signer SignerContext, endpoint string, status int, response map[string]any) error {
	if signer.IdempotencyKey == "" {
		return nil
	}
	return st.SaveIdempotencyRecord(ctx, signer.ContractID, signer.SignerID, signer.IdempotencyKey, endpoint, status, response)
}
