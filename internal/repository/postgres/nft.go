package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/moodlync/tokencore/internal/domain/nft"
	"github.com/moodlync/tokencore/internal/pkg/errors"
)

const nftColumns = `id, user_id, emotion, rarity, evolution_level, mint_status, tokens_cost,
	minted_at, burned_at, created_at, updated_at`

// NftRepository implements nft.Repository
type NftRepository struct {
	*Store
}

// NewNftRepository creates a new NFT repository
func NewNftRepository(store *Store) nft.Repository {
	return &NftRepository{Store: store}
}

// Create creates a new NFT
func (r *NftRepository) Create(ctx context.Context, n *nft.EmotionalNft) error {
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now

	id, err := r.insert(ctx, `
		INSERT INTO emotional_nfts (user_id, emotion, rarity, evolution_level, mint_status, tokens_cost,
			minted_at, burned_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		n.UserID, n.Emotion, string(n.Rarity), n.EvolutionLevel, string(n.MintStatus), n.TokensCost,
		unixPtr(n.MintedAt), unixPtr(n.BurnedAt), unix(now), unix(now),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create NFT", err)
	}

	n.ID = id
	return nil
}

// GetByID retrieves an NFT by ID
func (r *NftRepository) GetByID(ctx context.Context, id int64) (*nft.EmotionalNft, error) {
	return scanNft(r.conn(ctx).QueryRowContext(ctx, `SELECT `+nftColumns+` FROM emotional_nfts WHERE id = $1`, id))
}

// GetForUpdate retrieves an NFT and locks its row for the open transaction
func (r *NftRepository) GetForUpdate(ctx context.Context, id int64) (*nft.EmotionalNft, error) {
	return scanNft(r.conn(ctx).QueryRowContext(ctx,
		`SELECT `+nftColumns+` FROM emotional_nfts WHERE id = $1`+r.forUpdate(), id))
}

// Update persists status, evolution level and timestamps
func (r *NftRepository) Update(ctx context.Context, n *nft.EmotionalNft) error {
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = time.Now().UTC()
	}

	res, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE emotional_nfts
		SET evolution_level = $1, mint_status = $2, minted_at = $3, burned_at = $4, updated_at = $5
		WHERE id = $6`,
		n.EvolutionLevel, string(n.MintStatus), unixPtr(n.MintedAt), unixPtr(n.BurnedAt), unix(n.UpdatedAt), n.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update NFT", err)
	}
	return requireRow(res, "NFT")
}

// ListByUser lists a user's NFTs, newest first
func (r *NftRepository) ListByUser(ctx context.Context, userID int64, status nft.MintStatus) ([]*nft.EmotionalNft, error) {
	query := `SELECT ` + nftColumns + ` FROM emotional_nfts WHERE user_id = $1`
	args := []interface{}{userID}
	if status != "" {
		query += ` AND mint_status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY id DESC`

	rows, err := r.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list NFTs", err)
	}
	defer rows.Close()

	var nfts []*nft.EmotionalNft
	for rows.Next() {
		n, err := scanNft(rows)
		if err != nil {
			return nil, err
		}
		nfts = append(nfts, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to list NFTs", err)
	}
	return nfts, nil
}

func scanNft(row rowScanner) (*nft.EmotionalNft, error) {
	var n nft.EmotionalNft
	var rarity, status string
	var minted, burned sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(&n.ID, &n.UserID, &n.Emotion, &rarity, &n.EvolutionLevel, &status, &n.TokensCost,
		&minted, &burned, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("NFT")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get NFT", err)
	}

	n.Rarity = nft.Rarity(rarity)
	n.MintStatus = nft.MintStatus(status)
	n.MintedAt = fromNullUnix(minted)
	n.BurnedAt = fromNullUnix(burned)
	n.CreatedAt = fromUnix(createdAt)
	n.UpdatedAt = fromUnix(updatedAt)
	return &n, nil
}
