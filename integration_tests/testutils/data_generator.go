package testutils

import (
	"strconv"
	"time"

	artifactdb "github.com/Black-And-White-Club/kamisato/app/modules/artifact/infrastructure/repositories"
	"github.com/brianvoe/gofakeit/v7"
)

// discordEpoch is the snowflake epoch, 2015-01-01T00:00:00Z, in milliseconds.
const discordEpoch = 1420070400000

// TestDataGenerator provides methods to create test data for integration tests
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewTestDataGenerator creates a new test data generator with optional seed
func NewTestDataGenerator(seed ...int64) *TestDataGenerator {
	var s int64
	if len(seed) > 0 {
		s = seed[0]
	} else {
		s = time.Now().UnixNano()
	}
	return &TestDataGenerator{
		faker: gofakeit.New(uint64(s)),
		seed:  s,
	}
}

// Seed returns the seed, for reproducing a failure.
func (g *TestDataGenerator) Seed() int64 { return g.seed }

// Snowflake returns a plausible Discord id created in the last few years.
func (g *TestDataGenerator) Snowflake() string {
	created := g.faker.DateRange(time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	ms := created.UnixMilli() - discordEpoch
	id := ms<<22 | int64(g.faker.Number(0, 1<<22-1))
	return strconv.FormatInt(id, 10)
}

// Snowflakes returns n distinct ids.
func (g *TestDataGenerator) Snowflakes(n int) []string {
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for len(out) < n {
		id := g.Snowflake()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Message returns a short reminder message.
func (g *TestDataGenerator) Message() string {
	return g.faker.Sentence(g.faker.Number(2, 8))
}

var (
	setKeys  = []string{"EmblemOfSeveredFate", "CrimsonWitchOfFlames", "NoblesseOblige", "DeepwoodMemories"}
	statKeys = []string{"hp", "hp_", "atk", "atk_", "def", "def_", "eleMas", "enerRech_", "critRate_", "critDMG_"}
)

// Artifact returns a valid, fully levelled five-star artifact.
func (g *TestDataGenerator) Artifact(slot string) *artifactdb.Artifact {
	keys := make([]string, len(statKeys))
	copy(keys, statKeys)
	g.faker.ShuffleAnySlice(keys)

	mainStat := keys[0]
	a := &artifactdb.Artifact{
		SetKey:      setKeys[g.faker.Number(0, len(setKeys)-1)],
		SlotKey:     slot,
		Rarity:      5,
		Level:       20,
		MainStatKey: mainStat,
	}

	// Five upgrades spread over four lines.
	upgrades := 5
	for i, key := range keys[1:5] {
		rolls := []int{g.faker.Number(0, 3)}
		extra := 0
		if i == 3 {
			extra = upgrades
		} else if upgrades > 0 {
			extra = g.faker.Number(0, upgrades)
		}
		upgrades -= extra
		for range extra {
			rolls = append(rolls, g.faker.Number(0, 3))
		}
		a.Substats = append(a.Substats, &artifactdb.Substat{StatKey: key, Rolls: rolls})
	}
	return a
}
