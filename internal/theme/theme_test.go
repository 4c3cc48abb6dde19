package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetTheme(t *testing.T) {
	assert.Equal(t, "Dracula", GetTheme("dracula").Name)
	assert.Equal(t, CatppuccinMocha.Name, GetTheme("no-such-theme").Name)
}

func TestNext_CyclesAllThemes(t *testing.T) {
	seen := map[string]bool{}
	th := CatppuccinMocha
	for range AllThemes() {
		seen[th.Key] = true
		th = Next(th)
	}
	assert.Len(t, seen, len(AllThemes()))
	assert.Equal(t, CatppuccinMocha.Key, th.Key)
}
