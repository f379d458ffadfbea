package shadow

// ShadowPassBuilderOption is a function that configures a ShadowPass during construction.
type ShadowPassBuilderOption func(*ShadowPass)

// WithTileSize sets the edge length of one light's atlas tile. Defaults to DefaultTileSize.
//
// Parameters:
//   - size: the tile size in texels, ignored when zero
//
// Returns:
//   - ShadowPassBuilderOption: a function that sets the tile size
func WithTileSize(size uint32) ShadowPassBuilderOption {
	return func(p *ShadowPass) {
		if size > 0 {
			p.tileSize = size
		}
	}
}

// WithStrategy sets which lights are redrawn each frame. Defaults to EveryFrame.
//
// Parameters:
//   - strategy: the update strategy
//
// Returns:
//   - ShadowPassBuilderOption: a function that sets the strategy
func WithStrategy(strategy Strategy) ShadowPassBuilderOption {
	return func(p *ShadowPass) {
		p.strategy = strategy
	}
}
