package intent_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replygate/internal/domain/intent"
)

func TestDefaultVocabulary(t *testing.T) {
	vocab := intent.Default()

	assert.True(t, vocab.Contains("order_status"))
	assert.True(t, vocab.Contains("refund_request"))
	assert.False(t, vocab.Contains("astrology"))

	assert.NoError(t, vocab.Validate([]string{"greeting", "legal"}))
	assert.Error(t, vocab.Validate([]string{"greeting", "astrology"}))
	assert.NoError(t, vocab.Validate(nil))
}

func TestLabelsAreSorted(t *testing.T) {
	vocab := intent.New([]string{"zeta", "alpha", "mid"})
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, vocab.Labels())
}

func TestLoadFile(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "intents.yaml")
		require.NoError(t, os.WriteFile(path, []byte("intents:\n  - order_status\n  - custom_faq\n"), 0o644))

		vocab, err := intent.LoadFile(path)
		require.NoError(t, err)
		assert.True(t, vocab.Contains("custom_faq"))
		assert.False(t, vocab.Contains("greeting"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := intent.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("empty vocabulary", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "intents.yaml")
		require.NoError(t, os.WriteFile(path, []byte("intents: []\n"), 0o644))

		_, err := intent.LoadFile(path)
		assert.Error(t, err)
	})
}
