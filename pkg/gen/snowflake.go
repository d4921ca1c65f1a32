package gen

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

var Module = fx.Module("gen", fx.Provide(NewNode))

// NewNode returns the snowflake node used for primary keys. SNOWFLAKE_NODE
// selects the node id when several writers run side by side.
func NewNode() (*snowflake.Node, error) {
	id := int64(1)
	if v := os.Getenv("SNOWFLAKE_NODE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, err
		}
		id = n
	}
	return snowflake.NewNode(id)
}
