package fastembed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_WithDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	assert.Equal(t, DefaultModel, c.Model)
	assert.Equal(t, "local_cache", c.CacheDir)
	assert.Equal(t, 512, c.MaxLength)

	c = Config{Model: "BAAI/bge-small-en-v1.5", MaxLength: 128}.withDefaults()
	assert.Equal(t, "BAAI/bge-small-en-v1.5", c.Model)
	assert.Equal(t, 128, c.MaxLength)
}
