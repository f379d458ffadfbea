package light

// DefaultShadowHalfExtent is the orthographic half-extent (in world units) of a shadow light's frustum. Controls
// how much of the scene around the light's target is captured in its atlas tile.
const DefaultShadowHalfExtent float32 = 40.0

// DefaultShadowNear is the near plane of a shadow light's orthographic projection.
const DefaultShadowNear float32 = 0.01

// DefaultShadowFar is the far plane of a shadow light's orthographic projection.
const DefaultShadowFar float32 = 200.0

// DefaultSunDistance is how far back along its direction a sun light's shadow camera is placed from the origin.
const DefaultSunDistance float32 = 100.0
