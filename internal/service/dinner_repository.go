package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/casaiglesia/casa-server/internal/domain"
	"github.com/casaiglesia/casa-server/internal/service/database"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DinnerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewDinnerRepository(postgres *database.PostgresService, logger *zap.Logger) *DinnerRepository {
	return &DinnerRepository{
		db:     postgres.GetDB(),
		logger: logger,
	}
}

func (r *DinnerRepository) CreateParticipant(ctx context.Context, p *domain.Participant) (*domain.Participant, error) {
	out := *p
	out.ID = uuid.NewString()
	out.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO participants (id, name, is_host, host_capacity, dietary_notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, out.ID, out.Name, out.IsHost, out.HostCapacity, out.DietaryNotes, out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert participant: %w", err)
	}

	return &out, nil
}

func (r *DinnerRepository) ListParticipants(ctx context.Context) ([]*domain.Participant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, is_host, host_capacity, dietary_notes, created_at
		FROM participants ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := make([]*domain.Participant, 0)
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.IsHost, &p.HostCapacity, &p.DietaryNotes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, &p)
	}

	return participants, rows.Err()
}

func (r *DinnerRepository) DeleteParticipant(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SaveRound persists a matching run and its groups in one transaction.
func (r *DinnerRepository) SaveRound(ctx context.Context, round *domain.DinnerRound) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin round transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO dinner_rounds (id, label, matched_at) VALUES ($1, $2, $3)`,
		round.ID, round.Label, round.MatchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dinner round: %w", err)
	}

	for _, group := range round.Groups {
		memberJSON, err := marshalJSON(group.MemberIDs)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO dinner_groups (id, round_id, host_id, member_ids) VALUES ($1, $2, $3, $4)`,
			group.ID, round.ID, group.HostID, memberJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to insert dinner group: %w", err)
		}
	}

	return tx.Commit()
}

func (r *DinnerRepository) ListRounds(ctx context.Context, limit int) ([]*domain.DinnerRound, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, label, matched_at FROM dinner_rounds
		ORDER BY matched_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list dinner rounds: %w", err)
	}
	defer rows.Close()

	rounds := make([]*domain.DinnerRound, 0)
	for rows.Next() {
		var round domain.DinnerRound
		if err := rows.Scan(&round.ID, &round.Label, &round.MatchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dinner round: %w", err)
		}
		rounds = append(rounds, &round)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, round := range rounds {
		groups, err := r.findGroups(ctx, round.ID)
		if err != nil {
			return nil, err
		}
		round.Groups = groups
	}

	return rounds, nil
}

func (r *DinnerRepository) findGroups(ctx context.Context, roundID string) ([]*domain.DinnerGroup, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, round_id, host_id, member_ids FROM dinner_groups WHERE round_id = $1
	`, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dinner groups: %w", err)
	}
	defer rows.Close()

	groups := make([]*domain.DinnerGroup, 0)
	for rows.Next() {
		var (
			g          domain.DinnerGroup
			memberJSON []byte
		)
		if err := rows.Scan(&g.ID, &g.RoundID, &g.HostID, &memberJSON); err != nil {
			return nil, fmt.Errorf("failed to scan dinner group: %w", err)
		}
		if err := json.Unmarshal(memberJSON, &g.MemberIDs); err != nil {
			return nil, fmt.Errorf("failed to decode group members: %w", err)
		}
		groups = append(groups, &g)
	}

	return groups, rows.Err()
}

// PairHistory returns, for every unordered pair of participant ids that have
// shared a table in any past round, how many times they met.
func (r *DinnerRepository) PairHistory(ctx context.Context) (map[[2]string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT host_id, member_ids FROM dinner_groups`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pair history: %w", err)
	}
	defer rows.Close()

	history := make(map[[2]string]int)
	for rows.Next() {
		var (
			hostID     string
			memberJSON []byte
		)
		if err := rows.Scan(&hostID, &memberJSON); err != nil {
			return nil, fmt.Errorf("failed to scan pair history row: %w", err)
		}
		var memberIDs []string
		if err := json.Unmarshal(memberJSON, &memberIDs); err != nil {
			continue
		}

		table := append([]string{hostID}, memberIDs...)
		for i := 0; i < len(table); i++ {
			for j := i + 1; j < len(table); j++ {
				history[pairKey(table[i], table[j])]++
			}
		}
	}

	return history, rows.Err()
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}
