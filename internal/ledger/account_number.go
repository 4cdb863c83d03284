package ledger

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// maxNumberAttempts bounds how many fresh numbers are drawn when the store
// already knows the candidate.
const maxNumberAttempts = 5

// NumberGenerator produces candidate account numbers. Uniqueness against the
// store is enforced by the service, not by the generator.
type NumberGenerator interface {
	Generate() string
}

// SnowflakeNumbers renders snowflake IDs as 19-digit zero-padded strings. IDs
// are unique per node as long as every process uses a distinct node number.
type SnowflakeNumbers struct {
	node *snowflake.Node
}

func NewSnowflakeNumbers(nodeID int64) (*SnowflakeNumbers, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}
	return &SnowflakeNumbers{node: node}, nil
}

func (g *SnowflakeNumbers) Generate() string {
	return fmt.Sprintf("%019d", g.node.Generate().Int64())
}

func nextAccountNumber(ctx context.Context, gen NumberGenerator, accounts AccountStore) (string, error) {
	for i := 0; i < maxNumberAttempts; i++ {
		candidate := gen.Generate()
		exists, err := accounts.ExistsByNumber(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no free account number after %d attempts", ErrDuplicateIdentity, maxNumberAttempts)
}
