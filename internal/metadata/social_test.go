package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSocialLinks_Fields(t *testing.T) {
	links := ExtractSocialLinks(&OffChainMetadata{
		Twitter:  "@pumpcat",
		Telegram: "pumpcat_chat",
		Discord:  "discord.gg/abc123",
		Website:  "www.pumpcat.io",
	})

	assert.Equal(t, "https://twitter.com/pumpcat", links.Twitter)
	assert.Equal(t, "https://t.me/pumpcat_chat", links.Telegram)
	assert.Equal(t, "https://discord.gg/abc123", links.Discord)
	assert.Equal(t, "https://www.pumpcat.io", links.Website)
}

func TestExtractSocialLinks_Description(t *testing.T) {
	links := ExtractSocialLinks(&OffChainMetadata{
		Description: "follow https://x.com/catcoin and t.me/catcoin_tg, site https://catcoin.fun join discord.gg/CaT9",
	})

	assert.Equal(t, "https://twitter.com/catcoin", links.Twitter)
	assert.Equal(t, "https://t.me/catcoin_tg", links.Telegram)
	assert.Equal(t, "https://discord.gg/CaT9", links.Discord)
	assert.Equal(t, "https://catcoin.fun", links.Website)
}

func TestExtractSocialLinks_FieldsWin(t *testing.T) {
	links := ExtractSocialLinks(&OffChainMetadata{
		Twitter:     "https://twitter.com/real",
		Description: "twitter.com/fake",
	})
	assert.Equal(t, "https://twitter.com/real", links.Twitter)
}

func TestExtractSocialLinks_Empty(t *testing.T) {
	assert.True(t, ExtractSocialLinks(nil).IsEmpty())
	assert.True(t, ExtractSocialLinks(&OffChainMetadata{Description: "just a cat"}).IsEmpty())
}

func TestQualityScore(t *testing.T) {
	t.Run("nothing", func(t *testing.T) {
		assert.Equal(t, 0, QualityScore(nil, nil, SocialLinks{}))
	})

	t.Run("on-chain only", func(t *testing.T) {
		on := &OnChainMetadata{Name: "Cat", Symbol: "CAT", URI: "ipfs://x"}
		assert.Equal(t, 25, QualityScore(on, nil, SocialLinks{}))
	})

	t.Run("complete", func(t *testing.T) {
		on := &OnChainMetadata{Name: "Cat", Symbol: "CAT", URI: "ipfs://x", Image: "img"}
		off := &OffChainMetadata{
			Description: "a very long description that is clearly longer than fifty characters",
			Attributes:  make([]Attribute, 10),
		}
		links := SocialLinks{Twitter: "t", Telegram: "t", Website: "w"}
		// 10+10+15+15+5+5+5+10+5+10
		assert.Equal(t, 90, QualityScore(on, off, links))
	})

	t.Run("short description", func(t *testing.T) {
		off := &OffChainMetadata{Description: "short"}
		assert.Equal(t, 15, QualityScore(nil, off, SocialLinks{}))
	})
}
