package marketplace

import (
	"regexp"

	"github.com/nftprophet/goapi/domain"
	"golang.org/x/xerrors"
)

// The three asset url shapes seen in the wild, tried in order, first match
// wins. The explicit ethereum shape comes before the generic chain slug one
// so it keeps winning for ethereum links.
var assetUrlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/assets/ethereum/(0x[0-9a-fA-F]{40})/(\d+)`),
	regexp.MustCompile(`/assets/(0x[0-9a-fA-F]{40})/(\d+)`),
	regexp.MustCompile(`/assets/([a-z0-9-]+)/(0x[0-9a-fA-F]{40})/(\d+)`),
}

// ParseAssetURL extracts (contract address, token id) from a marketplace
// asset url
func ParseAssetURL(rawUrl string) (domain.Address, domain.TokenId, error) {
	for _, pattern := range assetUrlPatterns {
		m := pattern.FindStringSubmatch(rawUrl)
		if m == nil {
			continue
		}
		// the chain slug shape carries the address in the second group
		addr, tokenId := m[1], m[2]
		if len(m) == 4 {
			addr, tokenId = m[2], m[3]
		}
		return domain.Address(addr).ToLower(), domain.TokenId(tokenId), nil
	}
	return "", "", xerrors.Errorf("%s: %w", domain.ErrInvalidURL, domain.ErrInvalidInput)
}
