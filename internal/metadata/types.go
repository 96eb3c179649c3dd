// internal/metadata/types.go
package metadata

// SocialLinks are the project links found in token metadata.
type SocialLinks struct {
	Twitter  string `json:"twitter,omitempty"`
	Telegram string `json:"telegram,omitempty"`
	Discord  string `json:"discord,omitempty"`
	Website  string `json:"website,omitempty"`
}

// IsEmpty reports whether no link was found.
func (s SocialLinks) IsEmpty() bool {
	return s.Twitter == "" && s.Telegram == "" && s.Discord == "" && s.Website == ""
}

// TokenMetadata is the merged on-chain and off-chain view of a token.
type TokenMetadata struct {
	Mint         string      `json:"mint"`
	Name         string      `json:"name"`
	Symbol       string      `json:"symbol"`
	Description  string      `json:"description,omitempty"`
	Image        string      `json:"image,omitempty"`
	Decimals     uint8       `json:"decimals"`
	Supply       string      `json:"supply"`
	Creator      string      `json:"creator,omitempty"`
	URI          string      `json:"uri,omitempty"`
	QualityScore int         `json:"quality_score"`
	SocialLinks  SocialLinks `json:"social_links"`
	HasSocial    bool        `json:"has_social"`
}

// OnChainMetadata is what the DAS asset API reports for a mint.
type OnChainMetadata struct {
	Name        string
	Symbol      string
	Description string
	URI         string
	Image       string
	Creator     string
}

// Attribute is one NFT-style trait in the off-chain JSON.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// OffChainMetadata is the JSON document behind the metadata URI.
type OffChainMetadata struct {
	Name        string      `json:"name"`
	Symbol      string      `json:"symbol"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Attributes  []Attribute `json:"attributes"`
	Twitter     string      `json:"twitter"`
	Telegram    string      `json:"telegram"`
	Discord     string      `json:"discord"`
	Website     string      `json:"website"`
}
