package colony

// BorderUpdate is the "updated shard contents" message a shard emits after
// each completed tick: the four 1-cell-wide edge strips of its post-tick
// buffer, tagged with the tick counter of the generation they describe.
// Each strip cell carries its own double-buffer marker.
//
// Receivers merge the strips into the halo of each adjacent local shard by
// direct overwrite, so applying the same update twice yields the same cells
// as applying it once. The tick counter lets a receiver discard an update
// describing an older generation than one it has already merged from the
// same source shard.
type BorderUpdate struct {
	Source Shard  `json:"source"`
	Tick   uint64 `json:"tick"`

	// Edge strips of the source shard's interior, row-major. Top and
	// Bottom have Source.Width cells; Left and Right have Source.Height.
	Top    []Cell `json:"top"`
	Bottom []Cell `json:"bottom"`
	Left   []Cell `json:"left"`
	Right  []Cell `json:"right"`
}

// ShardStats summarizes one shard for the coordinator's stat capture and
// the get-shard-stats RPC.
type ShardStats struct {
	Tick          uint64 `json:"tick"`
	CreatureCount uint64 `json:"creature_count"`
	TotalHealth   uint64 `json:"total_health"`
	TotalFood     uint64 `json:"total_food"`

	// SizeHistogram counts creatures by trait size.
	SizeHistogram map[uint8]uint64 `json:"size_histogram"`
	CanKillCount  uint64           `json:"can_kill_count"`
	CanMoveCount  uint64           `json:"can_move_count"`
}
