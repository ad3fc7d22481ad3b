package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/herd-bot/internal/features/herd"
)

func character(id string, p herd.Personality) *herd.Character {
	return &herd.Character{ID: id, Name: id, Personality: p}
}

func TestDefaultCatalogCoversEveryKind(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	for _, kind := range herd.Kinds {
		rules := c.Rules(kind)
		require.NotEmpty(t, rules, kind)
		assert.Equal(t, herd.Social, rules[len(rules)-1].Personality, "social goes last for %s", kind)
		for _, r := range rules {
			assert.NotNil(t, r.Outcome)
		}
	}
}

func TestSelectPrefersThematicPersonality(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	herdList := []*herd.Character{
		character("a", herd.Social),
		character("b", herd.Greedy),
		character("c", herd.Vain),
		character("d", herd.Sleepy),
	}

	rule, lead := c.Select(herd.KindFeeding, herdList)
	require.NotNil(t, rule)
	assert.Equal(t, herd.Greedy, rule.Personality)
	assert.Equal(t, "b", lead.ID)

	rule, lead = c.Select(herd.KindFetch, herdList)
	require.NotNil(t, rule)
	assert.Equal(t, herd.Social, rule.Personality)
	assert.Equal(t, "a", lead.ID)
}

func TestSelectNoMatch(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	rule, lead := c.Select(herd.KindLullaby, []*herd.Character{character("x", herd.Greedy)})
	assert.Nil(t, rule)
	assert.Nil(t, lead)
}

func TestSelectFallsBackToSocialOnly(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	herdList := []*herd.Character{character("s", herd.Social), character("g", herd.Grumpy)}
	for _, kind := range herd.Kinds {
		rule, lead := c.Select(kind, herdList)
		require.NotNil(t, rule, kind)
		assert.Equal(t, herd.Social, rule.Personality, kind)
		assert.Equal(t, "s", lead.ID, kind)
	}

	rule, lead := c.Select(herd.KindFeeding, []*herd.Character{character("g", herd.Grumpy)})
	assert.Nil(t, rule)
	assert.Nil(t, lead)
}

func TestStarterHerdReachesEveryThematicRule(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	s := herd.NewSave("s", 0, herd.Season{}, false)
	for _, kind := range herd.Kinds {
		rule, lead := c.Select(kind, s.Herd)
		require.NotNil(t, rule, kind)
		assert.NotEqual(t, herd.Social, rule.Personality, kind)
		assert.Equal(t, rule.Personality, lead.Personality)
	}
}

func TestParseKeepsOneRulePerTier(t *testing.T) {
	raw := []byte(`
rules:
  - kind: grooming
    personality: social
    label: Spa
  - kind: grooming
    personality: vain
    label: Mirror
  - kind: grooming
    personality: grumpy
    label: Protest
  - kind: grooming
    personality: social
    label: Second Spa
`)
	c, err := Parse(raw)
	require.NoError(t, err)

	rules := c.Rules(herd.KindGrooming)
	require.Len(t, rules, 2)
	assert.Equal(t, "Mirror", rules[0].Label)
	assert.Equal(t, "Spa", rules[1].Label)

	rule, _ := c.Select(herd.KindGrooming, []*herd.Character{character("g", herd.Grumpy), character("s", herd.Social)})
	require.NotNil(t, rule)
	assert.Equal(t, "Spa", rule.Label)
}

func TestParseSkipsBrokenRules(t *testing.T) {
	raw := []byte(`
rules:
  - kind: feeding
    personality: social
    label: Fallback
  - kind: juggling
    personality: greedy
  - kind: feeding
    personality: dramatic
  - kind: feeding
    personality: greedy
    label: Greedy
    hook: does_not_exist
`)
	c, err := Parse(raw)
	require.NoError(t, err)

	rules := c.Rules(herd.KindFeeding)
	require.Len(t, rules, 2)
	assert.Equal(t, "Greedy", rules[0].Label)
	assert.Equal(t, "Fallback", rules[1].Label)

	res := &herd.Result{Success: true, Summary: "ok"}
	rules[0].Outcome(HookContext{Kind: herd.KindFeeding}, res)
	assert.Equal(t, "ok", res.Summary)
	assert.Empty(t, res.Adjustments)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("rules: [:"))
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	assert.Equal(t, "Biscuit is hungry", Render("{lead} is hungry", "Biscuit"))
	assert.Equal(t, "The herd is hungry", Render("{lead} is hungry", ""))
}

func TestModifiersCopyIsIndependent(t *testing.T) {
	r := &Rule{Modifiers: map[string]float64{"speed_scale": 1.2}}
	m := r.ModifiersCopy()
	m["speed_scale"] = 9
	assert.Equal(t, 1.2, r.Modifiers["speed_scale"])
}
