package effect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/duskhollow/mud/internal/game/effect"
)

func poisonReq() effect.ApplyRequest {
	return effect.ApplyRequest{
		ID:         "serpent_venom",
		Policy:     effect.PolicyStackAdd,
		DurationMs: 10_000,
		MaxStacks:  5,
		Tags:       []string{"poison"},
	}
}

func TestStore_Apply_NewInstance(t *testing.T) {
	s := effect.NewStore()
	res := s.Apply(poisonReq(), 1000)
	require.True(t, res.Applied)
	require.NotNil(t, res.Instance)
	assert.Equal(t, "serpent_venom", res.Instance.ID)
	assert.Equal(t, 1, res.Instance.StackCount)
	assert.Equal(t, int64(11_000), res.Instance.ExpiresAtMs)
	assert.NotEmpty(t, res.Instance.InstanceID)
}

func TestStore_ExpiryBoundaryIsActive(t *testing.T) {
	s := effect.NewStore()
	s.Apply(poisonReq(), 1000)

	// expiresAtMs == now is still active
	assert.True(t, s.HasActive("serpent_venom", 11_000))
	assert.Empty(t, s.Tick(11_000))

	// one millisecond later it is pruned
	pruned := s.Tick(11_001)
	require.Len(t, pruned, 1)
	assert.False(t, s.HasActive("serpent_venom", 11_001))
}

func TestStore_Tick_Idempotent(t *testing.T) {
	s := effect.NewStore()
	s.Apply(poisonReq(), 1000)
	other := poisonReq()
	other.ID = "weakness"
	other.DurationMs = 100_000
	s.Apply(other, 1000)

	require.Len(t, s.Tick(50_000), 1) // venom expired, weakness not
	assert.Empty(t, s.Tick(50_000))   // nothing newly expired
	assert.Empty(t, s.Tick(60_000))
	assert.True(t, s.HasActive("weakness", 60_000))
}

func TestStore_Tick_DropsZeroStacks(t *testing.T) {
	s := effect.NewStore()
	res := s.Apply(poisonReq(), 1000)
	res.Instance.StackCount = 0
	pruned := s.Tick(2000)
	require.Len(t, pruned, 1)
	assert.Zero(t, s.Len())
}

func TestStore_Tick_ClampsStacksToCap(t *testing.T) {
	s := effect.NewStore()
	res := s.Apply(poisonReq(), 1000)
	res.Instance.StackCount = 99
	assert.Empty(t, s.Tick(2000))
	assert.Equal(t, 5, res.Instance.StackCount)
}

func TestStore_UntilCleared(t *testing.T) {
	s := effect.NewStore()
	req := poisonReq()
	req.DurationMs = 0
	res := s.Apply(req, 1000)
	assert.Equal(t, effect.NeverExpires, res.Instance.ExpiresAtMs)
	assert.Empty(t, s.Tick(1<<50))
	assert.Len(t, s.Clear("serpent_venom"), 1)
	assert.Zero(t, s.Len())
}

func TestStore_Clear_AbsentIsNoOp(t *testing.T) {
	s := effect.NewStore()
	assert.Empty(t, s.Clear("nonexistent"))
}

func TestStore_ClearAll(t *testing.T) {
	s := effect.NewStore()
	s.Apply(poisonReq(), 1000)
	req := poisonReq()
	req.ID = "weakness"
	s.Apply(req, 1000)
	assert.Equal(t, 2, s.ClearAll())
	assert.Zero(t, s.Len())
}

func TestStore_ZeroValueStoreIsUsable(t *testing.T) {
	// malformed persisted state degrades to an empty container
	var s effect.Store
	assert.Empty(t, s.Active(1000))
	res := s.Apply(poisonReq(), 1000)
	assert.True(t, res.Applied)
}

func TestStore_ClearByTags_RemovesMatching(t *testing.T) {
	s := effect.NewStore()
	s.Apply(poisonReq(), 1000)
	curse := poisonReq()
	curse.ID = "hex"
	curse.Tags = []string{"curse"}
	s.Apply(curse, 2000)

	removed := s.ClearByTags([]string{"poison"}, effect.CleanseOptions{}, 3000)
	require.Len(t, removed, 1)
	assert.Equal(t, "serpent_venom", removed[0].ID)
	assert.True(t, s.HasActive("hex", 3000))
}

func TestStore_ClearByTags_OldestFirstWithLimit(t *testing.T) {
	s := effect.NewStore()
	first := poisonReq()
	first.ID = "venom_a"
	s.Apply(first, 1000)
	second := poisonReq()
	second.ID = "venom_b"
	s.Apply(second, 2000)

	removed := s.ClearByTags([]string{"poison"}, effect.CleanseOptions{Limit: 1}, 3000)
	require.Len(t, removed, 1)
	assert.Equal(t, "venom_a", removed[0].ID)
	assert.True(t, s.HasActive("venom_b", 3000))
}

func TestStore_ClearByTags_ExceptSkips(t *testing.T) {
	s := effect.NewStore()
	req := poisonReq()
	req.Tags = []string{"poison", "disease"}
	s.Apply(req, 1000)

	removed := s.ClearByTags([]string{"poison"}, effect.CleanseOptions{Except: []string{"disease"}}, 2000)
	assert.Empty(t, removed)
	assert.True(t, s.HasActive("serpent_venom", 2000))
}

func TestStore_ClearByTags_ImmunityMarkerProtected(t *testing.T) {
	s := effect.NewStore()
	ward := effect.ApplyRequest{
		ID:         "mind_ward",
		DurationMs: 30_000,
		Tags:       []string{effect.TagCCImmune, "magic"},
	}
	s.Apply(ward, 1000)

	// a default-scoped cleanse of "magic" effects must not strip the ward
	assert.Empty(t, s.ClearByTags([]string{"magic"}, effect.CleanseOptions{}, 2000))
	assert.True(t, s.HasActiveTag(effect.TagCCImmune, 2000))

	// explicitly targeting the immunity tag removes it
	removed := s.ClearByTags([]string{effect.TagCCImmune}, effect.CleanseOptions{}, 2000)
	require.Len(t, removed, 1)
	assert.False(t, s.HasActiveTag(effect.TagCCImmune, 2000))
}

func TestStore_Tick_PruneDoesNotMutateUnrelated(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := effect.NewStore()
		n := rapid.IntRange(1, 8).Draw(t, "n")
		for i := 0; i < n; i++ {
			req := poisonReq()
			req.ID = rapid.StringMatching(`[a-z]{3,8}`).Draw(t, "id")
			req.DurationMs = int64(rapid.IntRange(1, 100_000).Draw(t, "dur"))
			s.Apply(req, 0)
		}
		now := int64(rapid.IntRange(0, 200_000).Draw(t, "now"))
		before := len(s.Active(now))
		pruned := s.Tick(now)
		assert.Equal(t, before, len(s.Active(now)))
		// second tick at the same time prunes nothing further
		assert.Empty(t, s.Tick(now))
		_ = pruned
	})
}
