package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/parley-ai/parley/pkg/core/types"
)

// Agent is a stored agent profile.
type Agent struct {
	ID        string             `json:"id"`
	Profile   types.AgentProfile `json:"profile"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

const agentColumns = "id, name, model, temperature, voice_id, system_instructions, knowledge_source, remote_tools, created_at, updated_at"

func (s *Store) CreateAgent(ctx context.Context, profile types.AgentProfile) (*Agent, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	remoteTools, err := encodeRemoteTools(profile.RemoteTools)
	if err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO agents (id, name, model, temperature, voice_id, system_instructions, knowledge_source, remote_tools)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+agentColumns,
		id, profile.Name, profile.Model, profile.Temperature, profile.VoiceID,
		profile.SystemInstructions, profile.KnowledgeSource, remoteTools,
	)
	return scanAgent(row)
}

func (s *Store) GetAgent(ctx context.Context, id string) (*Agent, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+agentColumns+" FROM agents WHERE id = $1", id)
	agent, err := scanAgent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return agent, err
}

func (s *Store) ListAgents(ctx context.Context) ([]*Agent, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+agentColumns+" FROM agents ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agents := []*Agent{}
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

func (s *Store) UpdateAgent(ctx context.Context, id string, profile types.AgentProfile) (*Agent, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	remoteTools, err := encodeRemoteTools(profile.RemoteTools)
	if err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE agents
		SET name = $2, model = $3, temperature = $4, voice_id = $5,
		    system_instructions = $6, knowledge_source = $7, remote_tools = $8,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+agentColumns,
		id, profile.Name, profile.Model, profile.Temperature, profile.VoiceID,
		profile.SystemInstructions, profile.KnowledgeSource, remoteTools,
	)
	agent, err := scanAgent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return agent, err
}

func (s *Store) DeleteAgent(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM agents WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAgent(row pgx.Row) (*Agent, error) {
	var a Agent
	var remoteTools []byte
	err := row.Scan(
		&a.ID, &a.Profile.Name, &a.Profile.Model, &a.Profile.Temperature,
		&a.Profile.VoiceID, &a.Profile.SystemInstructions, &a.Profile.KnowledgeSource,
		&remoteTools, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Profile.RemoteTools, err = decodeRemoteTools(remoteTools)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func encodeRemoteTools(servers []types.RemoteToolServer) ([]byte, error) {
	if servers == nil {
		servers = []types.RemoteToolServer{}
	}
	b, err := json.Marshal(servers)
	if err != nil {
		return nil, fmt.Errorf("encode remote tools: %w", err)
	}
	return b, nil
}

func decodeRemoteTools(raw []byte) ([]types.RemoteToolServer, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var servers []types.RemoteToolServer
	if err := json.Unmarshal(raw, &servers); err != nil {
		return nil, fmt.Errorf("decode remote tools: %w", err)
	}
	if len(servers) == 0 {
		return nil, nil
	}
	return servers, nil
}
