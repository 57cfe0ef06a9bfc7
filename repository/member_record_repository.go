package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bumpbot/database"
	"bumpbot/domain/entities"
	domainerrors "bumpbot/domain/errors"
	"bumpbot/domain/interfaces"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// memberRecordDB is a local struct for database mapping
type memberRecordDB struct {
	ID                int64      `db:"id"`
	DiscordID         string     `db:"discord_id"`
	DiscordUsername   string     `db:"discord_username"`
	MinecraftUsername string     `db:"minecraft_username"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         *time.Time `db:"updated_at"`
}

func (m *memberRecordDB) toDomain() *entities.MemberRecord {
	record := &entities.MemberRecord{
		RecordID:     m.ID,
		DiscordID:    m.DiscordID,
		DiscordTag:   m.DiscordUsername,
		GameUsername: m.MinecraftUsername,
		CreatedAt:    m.CreatedAt,
	}
	if m.UpdatedAt != nil {
		record.UpdatedAt = *m.UpdatedAt
	}
	return record
}

const memberRecordColumns = `id, discord_id, discord_username, minecraft_username, created_at, updated_at`

// memberRecordRepository implements interfaces.IdentityStore on postgres
type memberRecordRepository struct {
	q Queryable
}

// NewMemberRecordRepository creates a postgres-backed identity store
func NewMemberRecordRepository(db *database.DB) interfaces.IdentityStore {
	return &memberRecordRepository{q: db.Pool}
}

// NewMemberRecordRepositoryWithQuerier creates an identity store on an open
// transaction or pool
func NewMemberRecordRepositoryWithQuerier(q Queryable) interfaces.IdentityStore {
	return &memberRecordRepository{q: q}
}

// FindByExternalID returns the member's record or nil when none exists
func (r *memberRecordRepository) FindByExternalID(ctx context.Context, discordID string) (*entities.MemberRecord, error) {
	query := `SELECT ` + memberRecordColumns + ` FROM member_records WHERE discord_id = $1`

	record, err := r.scanOne(r.q.QueryRow(ctx, query, discordID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domainerrors.NewStoreError("find", 0, fmt.Errorf("failed to get member record: %w", err))
	}
	return record, nil
}

// Create inserts a new member record
func (r *memberRecordRepository) Create(ctx context.Context, discordID, discordTag, gameUsername string) (*entities.MemberRecord, error) {
	query := `
		INSERT INTO member_records (discord_id, discord_username, minecraft_username, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING ` + memberRecordColumns

	record, err := r.scanOne(r.q.QueryRow(ctx, query, discordID, discordTag, gameUsername))
	if err != nil {
		status := 0
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			status = http.StatusConflict
		}
		return nil, domainerrors.NewStoreError("create", status, fmt.Errorf("failed to create member record: %w", err))
	}
	return record, nil
}

// Update overwrites the game username of an existing record
func (r *memberRecordRepository) Update(ctx context.Context, recordID int64, gameUsername string) (*entities.MemberRecord, error) {
	query := `
		UPDATE member_records
		SET minecraft_username = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + memberRecordColumns

	record, err := r.scanOne(r.q.QueryRow(ctx, query, recordID, gameUsername))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domainerrors.NewStoreError("update", http.StatusNotFound, fmt.Errorf("member record %d not found", recordID))
	}
	if err != nil {
		return nil, domainerrors.NewStoreError("update", 0, fmt.Errorf("failed to update member record: %w", err))
	}
	return record, nil
}

func (r *memberRecordRepository) scanOne(row pgx.Row) (*entities.MemberRecord, error) {
	var dbRecord memberRecordDB
	err := row.Scan(
		&dbRecord.ID,
		&dbRecord.DiscordID,
		&dbRecord.DiscordUsername,
		&dbRecord.MinecraftUsername,
		&dbRecord.CreatedAt,
		&dbRecord.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return dbRecord.toDomain(), nil
}
