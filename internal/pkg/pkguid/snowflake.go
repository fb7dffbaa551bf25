package pkguid

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

const maxNodeID = 1<<10 - 1

// Snowflake generates time-ordered int64 IDs.
type Snowflake struct {
	node *snowflake.Node
}

func randomNodeID() (int64, error) {
	var nodeID int64
	if err := binary.Read(rand.Reader, binary.BigEndian, &nodeID); err != nil {
		return 0, err
	}
	return nodeID & maxNodeID, nil
}

// NewSnowflake uses nodeID when it is in 0..1023 and a random node otherwise.
func NewSnowflake(nodeID int64) (*Snowflake, error) {
	if nodeID < 0 || nodeID > maxNodeID {
		var err error
		if nodeID, err = randomNodeID(); err != nil {
			return nil, fmt.Errorf("snowflake node id: %w", err)
		}
	}

	snowflake.Epoch = 1767225600000 // 2026-01-01T00:00:00Z

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
