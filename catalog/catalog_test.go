package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `{
	"cards": {
		"c1": {"set": "thb", "rarity": "common", "colorIdentity": "W", "inBooster": true},
		"c2": {"set": "thb", "rarity": "rare", "colorIdentity": "U", "inBooster": true},
		"c3": {"set": "thb", "rarity": "common", "colorIdentity": "colorless", "inBooster": false}
	},
	"setList": ["thb"],
	"jumpstartThemes": [
		{"name": "Aggro Red", "cards": ["c2", "c1"]}
	]
}`

func TestLoad(t *testing.T) {
	c, err := Load([]byte(fixture))
	require.NoError(t, err)

	facts, err := c.Facts("c2")
	require.NoError(t, err)
	assert.Equal(t, RarityRare, facts.Rarity)
	assert.Equal(t, []string{"thb"}, c.SetList())

	_, err = c.Facts("missing")
	assert.ErrorIs(t, err, ErrUnknownCard)

	require.Len(t, c.JumpstartThemes(), 1)
	assert.Equal(t, "Aggro Red", c.JumpstartThemes()[0].Name)
}

func TestInSet(t *testing.T) {
	assert.True(t, InSet(nil, "thb"))
	assert.True(t, InSet([]string{"thb", "iko"}, "iko"))
	assert.False(t, InSet([]string{"thb"}, "iko"))
}

func TestLandSlot(t *testing.T) {
	pool := MapCommonsPool{"plains": 5, "island": 5, "c1": 10}
	slot := BasicLandSlot{Lands: []CardID{"plains", "island"}}.Setup(pool)

	_, ok := pool["plains"]
	assert.False(t, ok)
	assert.Equal(t, 10, pool["c1"])

	assert.Equal(t, CardID("plains"), slot.Pick(0))
	assert.Equal(t, CardID("island"), slot.Pick(0.99))
}
