package platform

import (
	"fmt"
	"unicode/utf8"
)

// Tone is the writing register a platform audience expects.
type Tone string

const (
	ToneCasual         Tone = "casual"
	ToneProfessional   Tone = "professional"
	ToneConversational Tone = "conversational"
	ToneVisual         Tone = "visual"
	ToneCommunity      Tone = "community"
	ToneInformative    Tone = "informative"
	TonePersonal       Tone = "personal"
)

type urlCostKind int

const (
	urlCostActual urlCostKind = iota
	urlCostFixed
)

// URLCost describes how a link counts against the character limit.
type URLCost struct {
	kind  urlCostKind
	fixed int
}

// ActualLength counts a link by its real length.
func ActualLength() URLCost {
	return URLCost{kind: urlCostActual}
}

// FixedCount counts every link as n characters, as shorteners do.
func FixedCount(n int) URLCost {
	if n < 0 {
		n = 0
	}
	return URLCost{kind: urlCostFixed, fixed: n}
}

// IsFixed reports whether links have a fixed cost.
func (c URLCost) IsFixed() bool {
	return c.kind == urlCostFixed
}

// Cost returns the characters a non-empty link consumes, excluding its separator.
func (c URLCost) Cost(link string) int {
	if c.kind == urlCostFixed {
		return c.fixed
	}
	return utf8.RuneCountInString(link)
}

func (c URLCost) String() string {
	if c.kind == urlCostFixed {
		return fmt.Sprintf("fixed(%d)", c.fixed)
	}
	return "actual"
}

// HashtagRange is the recommended hashtag count. The zero range means the
// platform convention is to use none.
type HashtagRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// None reports whether the platform discourages hashtags entirely.
func (r HashtagRange) None() bool {
	return r.Min == 0 && r.Max == 0
}

// Warn reports whether count falls outside the recommendation.
func (r HashtagRange) Warn(count int) bool {
	if r.None() {
		return count > 0
	}
	return count < r.Min || count > r.Max
}

func (r HashtagRange) String() string {
	if r.None() {
		return "none"
	}
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// ShareTemplate is a deep-link template that may be absent. Platforms
// without a generic share endpoint carry NoShare.
type ShareTemplate struct {
	template string
	present  bool
}

// NoShare marks a platform as having no generic share endpoint.
func NoShare() ShareTemplate {
	return ShareTemplate{}
}

// Template wraps a deep-link pattern using {text} and {url} placeholders.
func Template(pattern string) ShareTemplate {
	return ShareTemplate{template: pattern, present: pattern != ""}
}

// Supported reports whether a template is present.
func (t ShareTemplate) Supported() bool {
	return t.present
}

// Pattern returns the template and whether it is present.
func (t ShareTemplate) Pattern() (string, bool) {
	return t.template, t.present
}

// Rule is the immutable constraint set for one platform.
type Rule struct {
	ID          string
	DisplayName string
	CharLimit   int
	URLCost     URLCost
	Hashtags    HashtagRange
	Tone        Tone
	Share       ShareTemplate
}

// Info is the serializable view of a Rule.
type Info struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	CharLimit      int    `json:"char_limit" yaml:"char_limit"`
	URLCost        string `json:"url_cost" yaml:"url_cost"`
	HashtagMin     int    `json:"hashtag_min" yaml:"hashtag_min"`
	HashtagMax     int    `json:"hashtag_max" yaml:"hashtag_max"`
	Tone           string `json:"tone" yaml:"tone"`
	ShareSupported bool   `json:"share_supported" yaml:"share_supported"`
}

// Info returns the serializable view of r.
func (r Rule) Info() Info {
	return Info{
		ID:             r.ID,
		Name:           r.DisplayName,
		CharLimit:      r.CharLimit,
		URLCost:        r.URLCost.String(),
		HashtagMin:     r.Hashtags.Min,
		HashtagMax:     r.Hashtags.Max,
		Tone:           string(r.Tone),
		ShareSupported: r.Share.Supported(),
	}
}
