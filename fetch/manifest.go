package fetch

import (
	"encoding/json"
	"fmt"

	"github.com/gogpu/chatglyph/glyph"
)

// Kind selects the manifest schema.
type Kind uint8

const (
	// KindEmotes is a list of emotes: /chat/emotes, /chat/emotes/global,
	// /chat/emotes/set.
	KindEmotes Kind = iota

	// KindBadges is a list of badge sets: /chat/badges, /chat/badges/global.
	KindBadges
)

// String returns the manifest kind name.
func (k Kind) String() string {
	switch k {
	case KindEmotes:
		return "emotes"
	case KindBadges:
		return "badges"
	default:
		return "unknown"
	}
}

// MarshalText encodes k by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes "emotes" or "badges".
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "emotes":
		*k = KindEmotes
	case "badges":
		*k = KindBadges
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, text)
	}
	return nil
}

// Namespace returns the glyph namespace assets of this kind register in.
func (k Kind) Namespace() glyph.Namespace {
	if k == KindBadges {
		return glyph.NamespaceBadge
	}
	return glyph.NamespaceEmote
}

// Emote is one entry of an emote manifest.
type Emote struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Images    map[string]string `json:"images"`
	Format    []string          `json:"format,omitempty"`
	Scale     []string          `json:"scale,omitempty"`
	ThemeMode []string          `json:"theme_mode,omitempty"`
}

// BadgeSet is one entry of a badge manifest.
type BadgeSet struct {
	SetID    string         `json:"set_id"`
	Versions []BadgeVersion `json:"versions"`
}

// BadgeVersion is one image of a badge set, e.g. a subscriber tier.
type BadgeVersion struct {
	ID          string `json:"id"`
	ImageURL1x  string `json:"image_url_1x"`
	ImageURL2x  string `json:"image_url_2x,omitempty"`
	ImageURL4x  string `json:"image_url_4x,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Asset is a manifest entry reduced to what the loader needs.
type Asset struct {
	Namespace glyph.Namespace

	// Name is the registry key: the emote name, or "set_id/id" for badges.
	Name string

	// URL is the 1x image URL.
	URL string

	// SourcePath identifies the asset in logs and glyph records.
	SourcePath string
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// ParseManifest decodes a Helix manifest body into assets.
func ParseManifest(body []byte, kind Kind) ([]Asset, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadManifest, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, fmt.Errorf("%w: missing data array", ErrBadManifest)
	}

	switch kind {
	case KindEmotes:
		var emotes []Emote
		if err := json.Unmarshal(env.Data, &emotes); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadManifest, err)
		}
		assets := make([]Asset, 0, len(emotes))
		for _, e := range emotes {
			assets = append(assets, Asset{
				Namespace:  glyph.NamespaceEmote,
				Name:       e.Name,
				URL:        e.Images["url_1x"],
				SourcePath: "emotes/" + e.ID,
			})
		}
		return assets, nil

	case KindBadges:
		var sets []BadgeSet
		if err := json.Unmarshal(env.Data, &sets); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadManifest, err)
		}
		var assets []Asset
		for _, set := range sets {
			for _, v := range set.Versions {
				name := set.SetID + "/" + v.ID
				assets = append(assets, Asset{
					Namespace:  glyph.NamespaceBadge,
					Name:       name,
					URL:        v.ImageURL1x,
					SourcePath: "badges/" + name,
				})
			}
		}
		return assets, nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
}
