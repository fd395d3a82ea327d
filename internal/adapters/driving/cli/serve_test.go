package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshlevylabs/gitscribe/internal/adapters/driven/storage/memory"
)

func TestWebhookSecret_FlagWins(t *testing.T) {
	store := memory.NewConfigStore()
	require.NoError(t, store.Set("webhook.secret", "from-config"))

	serveSecret = "from-flag"
	configStore = store
	t.Cleanup(func() {
		serveSecret = ""
		configStore = nil
	})

	assert.Equal(t, "from-flag", webhookSecret())
}

func TestWebhookSecret_ConfigFallback(t *testing.T) {
	store := memory.NewConfigStore()
	require.NoError(t, store.Set("webhook.secret", "from-config"))

	serveSecret = ""
	configStore = store
	t.Cleanup(func() { configStore = nil })

	assert.Equal(t, "from-config", webhookSecret())
}

func TestWebhookSecret_Unset(t *testing.T) {
	serveSecret = ""
	configStore = nil

	assert.Empty(t, webhookSecret())
}
