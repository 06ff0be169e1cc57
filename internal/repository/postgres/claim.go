package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/paysms/internal/apperrors"
	"github.com/nkiryanov/paysms/internal/models"
	"github.com/nkiryanov/paysms/internal/repository"
)

type ClaimRepo struct {
	DB DBTX
}

const claimColumns = `id, network_tx_id, kind, amount, phone, raw_text, reason, claimed, claimed_by, created_at, claimed_at, synthetic_tx_id`

const insertClaim = `-- name: InsertClaim
WITH insert_claim AS (
	INSERT INTO pending_claims (id, network_tx_id, kind, amount, phone, raw_text, reason, created_at, synthetic_tx_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT DO NOTHING
	RETURNING ` + claimColumns + `
)
SELECT ` + claimColumns + ` FROM insert_claim
UNION ALL
(
	SELECT ` + claimColumns + ` FROM pending_claims
	WHERE network_tx_id = $2 OR ($9 AND synthetic_tx_id AND md5(raw_text) = md5($6))
	ORDER BY network_tx_id = $2 DESC
	LIMIT 1
)
`

func (r *ClaimRepo) InsertClaim(ctx context.Context, c models.PendingClaim) (models.PendingClaim, bool, error) {
	claimID := uuid.New()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	rows, _ := r.DB.Query(ctx, insertClaim, claimID, c.NetworkTxID, c.Kind, c.Amount, c.Phone, c.RawText, c.Reason, c.CreatedAt, c.SyntheticTxID)
	stored, err := pgx.CollectOneRow(rows, rowToClaim)

	switch {
	case err == nil:
		return stored, stored.ID == claimID, nil
	case errors.Is(err, pgx.ErrNoRows):
		stored, err = r.GetClaim(ctx, c.NetworkTxID)
		if errors.Is(err, apperrors.ErrClaimNotFound) && c.SyntheticTxID {
			stored, err = r.FindSynthetic(ctx, c.RawText)
		}
		return stored, false, err
	default:
		return stored, false, fmt.Errorf("db error: %w", err)
	}
}

const getClaim = `-- name: GetClaim
SELECT ` + claimColumns + ` FROM pending_claims
WHERE network_tx_id = $1`

func (r *ClaimRepo) GetClaim(ctx context.Context, networkTxID string) (models.PendingClaim, error) {
	rows, _ := r.DB.Query(ctx, getClaim, networkTxID)
	return collectClaim(rows)
}

const findSyntheticClaim = `-- name: FindSyntheticClaim
SELECT ` + claimColumns + ` FROM pending_claims
WHERE synthetic_tx_id AND md5(raw_text) = md5($1)`

func (r *ClaimRepo) FindSynthetic(ctx context.Context, rawText string) (models.PendingClaim, error) {
	rows, _ := r.DB.Query(ctx, findSyntheticClaim, rawText)
	return collectClaim(rows)
}

// Conditional on claimed = false so a claim is credited once
const markClaimed = `-- name: MarkClaimed
UPDATE pending_claims SET
	claimed = true,
	claimed_by = $2,
	claimed_at = $3
WHERE id = $1 AND NOT claimed
RETURNING ` + claimColumns

func (r *ClaimRepo) MarkClaimed(ctx context.Context, claimID uuid.UUID, userID uuid.UUID) (models.PendingClaim, error) {
	rows, _ := r.DB.Query(ctx, markClaimed, claimID, userID, time.Now())
	return collectClaim(rows)
}

const listClaims = `-- name: ListClaims
SELECT ` + claimColumns + ` FROM pending_claims
WHERE NOT claimed OR NOT $1
ORDER BY created_at DESC, id DESC`

func (r *ClaimRepo) ListClaims(ctx context.Context, onlyUnclaimed bool) ([]models.PendingClaim, error) {
	rows, _ := r.DB.Query(ctx, listClaims, onlyUnclaimed)
	claims, err := pgx.CollectRows(rows, rowToClaim)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return claims, nil
}

const listPending = `-- name: ListPending
SELECT ` + claimColumns + ` FROM pending_claims
WHERE NOT claimed
	AND (cardinality($1::text[]) = 0 OR reason = ANY($1::text[]))
	AND (NOT $2 OR phone <> '')
ORDER BY created_at, id
LIMIT $3`

func (r *ClaimRepo) ListPending(ctx context.Context, opts repository.ListPendingOpts) ([]models.PendingClaim, error) {
	reasons := opts.Reasons
	if reasons == nil {
		reasons = []string{}
	}

	var limit *int
	if opts.Limit > 0 {
		limit = &opts.Limit
	}

	rows, _ := r.DB.Query(ctx, listPending, reasons, opts.WithPhone, limit)
	claims, err := pgx.CollectRows(rows, rowToClaim)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return claims, nil
}

func collectClaim(rows pgx.Rows) (models.PendingClaim, error) {
	c, err := pgx.CollectOneRow(rows, rowToClaim)

	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, pgx.ErrNoRows):
		return c, apperrors.ErrClaimNotFound
	default:
		return c, fmt.Errorf("db error: %w", err)
	}
}

func rowToClaim(row pgx.CollectableRow) (models.PendingClaim, error) {
	var c models.PendingClaim
	err := row.Scan(&c.ID, &c.NetworkTxID, &c.Kind, &c.Amount, &c.Phone, &c.RawText, &c.Reason, &c.Claimed, &c.ClaimedBy, &c.CreatedAt, &c.ClaimedAt, &c.SyntheticTxID)
	return c, err
}
