//nolint:revive // types is a common Go package naming convention
package types

import "strings"

// GlobalChannelID is the catalog identifier of the base ("global") emote set.
// It is fetched directly, without a channel name lookup.
const GlobalChannelID = 0

// GlobalChannelName is the configured channel name that maps to GlobalChannelID.
const GlobalChannelName = "twitch"

// Variants is the fixed set of style suffixes applied to every catalog entry.
// The empty suffix is the default rendition. Each catalog entry expands to
// exactly len(Variants) records, in this order.
var Variants = []string{"", "_BW", "_HF", "_SG", "_SQ", "_TK"}

// IsVariant reports whether s is one of the known style suffixes.
func IsVariant(s string) bool {
	for _, v := range Variants {
		if v == s {
			return true
		}
	}
	return false
}

// IsGlobalChannel reports whether a configured channel name refers to the base set.
func IsGlobalChannel(name string) bool {
	return strings.EqualFold(name, GlobalChannelName)
}

// CatalogEmote is one entry of a channel catalog.
type CatalogEmote struct {
	// ID is the upstream numeric emote identifier.
	ID int `json:"id"`
	// Code is the literal token or regular expression that triggers the emote.
	Code string `json:"code"`
	// EmoticonSet is the upstream emote set the entry belongs to.
	EmoticonSet int `json:"emoticon_set"`
}

// ChannelCatalog is the subset of the remote catalog response the engine consumes.
type ChannelCatalog struct {
	ChannelID       string         `json:"channel_id"`
	ChannelName     string         `json:"channel_name"`
	DisplayName     string         `json:"display_name"`
	BroadcasterType string         `json:"broadcaster_type"`
	BaseSetID       string         `json:"base_set_id"`
	Emotes          []CatalogEmote `json:"emotes"`
}
