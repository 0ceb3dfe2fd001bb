package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/esign"
)

func (s *Store) GetIdempotencyRecord(ctx context.Context, contractID, signerID, idempotencyKey, endpoint string) (int, map[string]any, bool, error) {
	var status int
	var raw []byte
	err := s.DB.QueryRow(ctx, `SELECT response_status, response_body FROM idempotency_records
WHERE contract_id=$1 AND signer_id=$2 AND idempotency_key=$3 AND endpoint=$4`,
		contractID, signerID, idempotencyKey, endpoint).Scan(&status, &raw)
	if err != nil {
		if errors.Is(noRows(err), esign.ErrNoRecord) {
			return 0, nil, false, nil
		}
		return 0, nil, false, err
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return 0, nil, false, err
	}
	return status, body, true, nil
}

func (s *Store) SaveIdempotencyRecord(ctx context.Context, contractID, signerID, idempotencyKey, endpoint string, responseStatus int, responseBody map[string]any) error {
	raw, err := json.Marshal(responseBody)
	if err != nil {
		return err
	}
	// First writer wins; a concurrent retry sees the stored response on replay.
	_, err = s.DB.Exec(ctx, `INSERT INTO idempotency_records(
contract_id,signer_id,idempotency_key,endpoint,response_status,response_body)
VALUES($1,$2,$3,$4,$5,$6::jsonb)
ON CONFLICT (contract_id,signer_id,idempotency_key,endpoint) DO NOTHING`,
		contractID, signerID, idempotencyKey, endpoint, responseStatus, string(raw))
	return err
}
