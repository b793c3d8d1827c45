package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	assert.Equal(t, "Tenant must be set", Get("en", NoTenant))
	assert.Equal(t, "Chưa thiết lập tenant", Get("VI", NoTenant))
	assert.Equal(t, "Tenant must be set", Get("fr", NoTenant), "unknown language falls back to English")
	assert.Equal(t, `Invalid UUID "abc"`, Get("", InvalidUUID, "abc"))
	assert.Equal(t, "missing_key", Get("en", Key("missing_key")))
}

func TestCatalogsAreComplete(t *testing.T) {
	for key := range en {
		_, ok := vi[key]
		assert.True(t, ok, "vi catalog misses %s", key)
	}
}

func TestValidLang(t *testing.T) {
	for _, l := range []string{"en", "VI", "De"} {
		assert.True(t, ValidLang(l), l)
	}
	for _, l := range []string{"", "e", "eng", "e1", "en-US"} {
		assert.False(t, ValidLang(l), l)
	}
}
