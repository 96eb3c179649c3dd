// internal/metadata/social.go
package metadata

import (
	"regexp"
	"strings"
)

var (
	twitterRe  = regexp.MustCompile(`(?:twitter\.com|x\.com)/([a-zA-Z0-9_]+)`)
	telegramRe = regexp.MustCompile(`t\.me/([a-zA-Z0-9_]+)`)
	discordRe  = regexp.MustCompile(`discord\.gg/([a-zA-Z0-9]+)`)
	urlRe      = regexp.MustCompile(`https?://[^\s]+`)
)

// ExtractSocialLinks reads links from the explicit fields, then from the description.
func ExtractSocialLinks(md *OffChainMetadata) SocialLinks {
	var links SocialLinks
	if md == nil {
		return links
	}

	if md.Twitter != "" {
		links.Twitter = normalizeURL(md.Twitter, "twitter")
	}
	if md.Telegram != "" {
		links.Telegram = normalizeURL(md.Telegram, "telegram")
	}
	if md.Discord != "" {
		links.Discord = normalizeURL(md.Discord, "discord")
	}
	if md.Website != "" {
		links.Website = normalizeURL(md.Website, "website")
	}

	desc := md.Description
	if desc == "" {
		return links
	}
	if m := twitterRe.FindStringSubmatch(desc); m != nil && links.Twitter == "" {
		links.Twitter = "https://twitter.com/" + m[1]
	}
	if m := telegramRe.FindStringSubmatch(desc); m != nil && links.Telegram == "" {
		links.Telegram = "https://t.me/" + m[1]
	}
	if m := discordRe.FindStringSubmatch(desc); m != nil && links.Discord == "" {
		links.Discord = "https://discord.gg/" + m[1]
	}
	if links.Website == "" {
		for _, u := range urlRe.FindAllString(desc, -1) {
			if !isSocialURL(u) {
				links.Website = u
				break
			}
		}
	}
	return links
}

func isSocialURL(u string) bool {
	rest := u[strings.Index(u, "://")+3:]
	rest = strings.TrimPrefix(rest, "www.")
	for _, p := range []string{"twitter", "x.com", "t.me", "discord"} {
		if strings.HasPrefix(rest, p) {
			return true
		}
	}
	return false
}

func normalizeURL(u, platform string) string {
	if strings.HasPrefix(u, "http") {
		return u
	}
	switch platform {
	case "twitter":
		return "https://twitter.com/" + strings.TrimPrefix(u, "@")
	case "telegram":
		return "https://t.me/" + strings.TrimPrefix(u, "@")
	case "discord":
		if strings.HasPrefix(u, "discord.gg/") {
			return "https://" + u
		}
	case "website":
		if strings.HasPrefix(u, "www.") {
			return "https://" + u
		}
	}
	return u
}

// QualityScore rates metadata completeness from 0 to 100.
func QualityScore(onChain *OnChainMetadata, offChain *OffChainMetadata, links SocialLinks) int {
	score := 0
	if onChain == nil {
		onChain = &OnChainMetadata{}
	}

	if onChain.Name != "" {
		score += 10
	}
	if onChain.Symbol != "" {
		score += 10
	}

	if offChain != nil && offChain.Description != "" {
		switch n := len(offChain.Description); {
		case n > 50:
			score += 15
		case n > 20:
			score += 10
		default:
			score += 5
		}
	}

	if onChain.Image != "" || (offChain != nil && offChain.Image != "") {
		score += 15
	}

	if links.Twitter != "" {
		score += 5
	}
	if links.Telegram != "" {
		score += 5
	}
	if links.Discord != "" || links.Website != "" {
		score += 5
	}

	if offChain != nil && len(offChain.Attributes) > 0 {
		score += min(10, len(offChain.Attributes)*2)
	}
	if onChain.URI != "" {
		score += 5
	}
	if offChain != nil {
		score += 10
	}
	return min(100, score)
}
