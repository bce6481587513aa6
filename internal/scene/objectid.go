package scene

import "sync/atomic"

// Handle ranges (convention):
//
//	0x00000000 - 0x0FFFFFFF: reserved (0 = invalid)
//	0x10000000 - 0x1FFFFFFF: fixture objects (anchors, fleet vehicles, static props)
//	0x20000000 - 0x2FFFFFFF: spawned instances
const (
	fixtureIDBase ObjectID = 0x10000000
	spawnIDBase   ObjectID = 0x20000000
)

// IDGenerator hands out handles from per-kind ranges.
// Each World owns one, so parallel passes never share a counter.
type IDGenerator struct {
	nextFixture atomic.Uint32
	nextSpawn   atomic.Uint32
}

// NewIDGenerator creates a generator positioned at the start of each range.
func NewIDGenerator() *IDGenerator {
	g := &IDGenerator{}
	g.nextFixture.Store(uint32(fixtureIDBase))
	g.nextSpawn.Store(uint32(spawnIDBase))
	return g
}

// NextFixtureID returns the next handle for a fixture object.
func (g *IDGenerator) NextFixtureID() ObjectID {
	return ObjectID(g.nextFixture.Add(1))
}

// NextSpawnID returns the next handle for a spawned instance.
func (g *IDGenerator) NextSpawnID() ObjectID {
	return ObjectID(g.nextSpawn.Add(1))
}

// IsSpawned reports whether id was issued for a spawned instance.
func IsSpawned(id ObjectID) bool {
	return id > spawnIDBase && id < spawnIDBase+0x10000000
}
