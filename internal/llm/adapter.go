package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/apivet/apivet/internal/analyzer"
	"github.com/apivet/apivet/internal/models"
)

// Adapter implements analyzer.Proposer on top of the completions
// client. It owns prompt construction and response validation; the
// session never sees raw model output.
type Adapter struct {
	client *Client
}

// NewAdapter wires a client into the proposer boundary. A nil client
// yields a nil adapter, which callers treat as augmentation disabled.
func NewAdapter(client *Client) *Adapter {
	if client == nil {
		return nil
	}
	return &Adapter{client: client}
}

// Propose sends one bounded batch and returns only schema-valid
// hypotheses.
func (a *Adapter) Propose(ctx context.Context, batch []models.Endpoint, known []models.Finding) (*analyzer.Proposal, error) {
	if a == nil || a.client == nil {
		return nil, ErrUnavailable
	}
	if len(batch) == 0 {
		return &analyzer.Proposal{}, nil
	}

	user, err := buildUserPrompt(batch, known)
	if err != nil {
		return nil, err
	}

	content, err := a.client.Complete(ctx, systemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("hypothesis call: %w", err)
	}

	proposal, err := parseProposal(content, batch)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int("batch_size", len(batch)).
		Int("accepted", len(proposal.Findings)).
		Int("observations", len(proposal.Observations)).
		Int("rejected", proposal.Rejected).
		Str("model", a.client.Model()).
		Msg("hypothesis batch complete")
	return proposal, nil
}
