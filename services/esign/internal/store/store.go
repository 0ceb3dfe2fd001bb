// Package store is the Postgres persistence layer for the esign engine. It
// implements the narrow store interfaces each component declares; no other
// package issues SQL.
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/esign"
)

type Store struct{ DB *pgxpool.Pool }

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

func noRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return esign.ErrNoRecord
	}
	return err
}

func (s *Store) GetContract(ctx context.Context, contractID string) (esign.Contract, error) {
	var c esign.Contract
	err := s.DB.QueryRow(ctx, `SELECT contract_id,title,content,status,created_at
FROM contracts WHERE contract_id=$1`, contractID).
		Scan(&c.ContractID, &c.Title, &c.Content, &c.Status, &c.CreatedAt)
	return c, noRows(err)
}

func (s *Store) GetSigner(ctx context.Context, contractID, signerID string) (esign.Signer, error) {
	var sg esign.Signer
	err := s.DB.QueryRow(ctx, `SELECT signer_id,contract_id,name,email,status
FROM contract_signers WHERE contract_id=$1 AND signer_id=$2`, contractID, signerID).
		Scan(&sg.SignerID, &sg.ContractID, &sg.Name, &sg.Email, &sg.Status)
	return sg, noRows(err)
}

func (s *Store) ListSigners(ctx context.Context, contractID string) ([]esign.Signer, error) {
	rows, err := s.DB.Query(ctx, `SELECT signer_id,contract_id,name,email,status
FROM contract_signers WHERE contract_id=$1 ORDER BY signer_id`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []esign.Signer
	for rows.Next() {
		var sg esign.Signer
		if err := rows.Scan(&sg.SignerID, &sg.ContractID, &sg.Name, &sg.Email, &sg.Status); err != nil {
			return nil, err
		}
		out = append(out, sg)
	}
	return out, rows.Err()
}

// SeedContract inserts a contract with its signers for smoke tests and local
// development. Contract authoring proper lives outside this service.
func (s *Store) SeedContract(ctx context.Context, c esign.Contract, signers []esign.Signer) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `INSERT INTO contracts(contract_id,title,content,status)
VALUES($1,$2,$3,$4) ON CONFLICT (contract_id) DO NOTHING`,
		c.ContractID, c.Title, c.Content, c.Status)
	if err != nil {
		return err
	}
	for _, sg := range signers {
		_, err = tx.Exec(ctx, `INSERT INTO contract_signers(signer_id,contract_id,name,email,status)
VALUES($1,$2,$3,$4,$5) ON CONFLICT (signer_id) DO NOTHING`,
			sg.SignerID, c.ContractID, sg.Name, sg.Email, esign.SignerPending)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
