package colony

// TopographyPoint seeds one interior elevation value at a shard-relative
// coordinate.
type TopographyPoint struct {
	X     uint16 `json:"x"`
	Y     uint16 `json:"y"`
	Value uint8  `json:"value"`
}

// ShardTopography is the per-shard elevation data the coordinator generates
// during global topography initialization. Border slices run along the
// shard's interior edges; adjacent shards receive identical values on their
// shared border so terrain is continuous across workers. Workers fill the
// interior by distance-weighted interpolation of the borders, then overlay
// the seeded points.
type ShardTopography struct {
	DefaultValue uint8             `json:"default_value"`
	TopBorder    []uint8           `json:"top_border"`
	BottomBorder []uint8           `json:"bottom_border"`
	LeftBorder   []uint8           `json:"left_border"`
	RightBorder  []uint8           `json:"right_border"`
	Points       []TopographyPoint `json:"points"`
}
