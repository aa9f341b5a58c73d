package platform

import (
	"fmt"
	"sort"
	"strings"
)

// Registry is a read-only lookup of platform rules.
type Registry struct {
	order []string
	rules map[string]Rule
}

// NewRegistry builds a registry, rejecting duplicate or empty ids.
func NewRegistry(rules ...Rule) (*Registry, error) {
	reg := &Registry{
		order: make([]string, 0, len(rules)),
		rules: make(map[string]Rule, len(rules)),
	}
	for _, rule := range rules {
		id := strings.TrimSpace(rule.ID)
		if id == "" {
			return nil, fmt.Errorf("platform rule missing id")
		}
		if rule.CharLimit <= 0 {
			return nil, fmt.Errorf("platform %s: char limit must be positive", id)
		}
		if rule.Hashtags.Min < 0 || rule.Hashtags.Max < rule.Hashtags.Min {
			return nil, fmt.Errorf("platform %s: invalid hashtag range %d-%d", id, rule.Hashtags.Min, rule.Hashtags.Max)
		}
		if _, exists := reg.rules[id]; exists {
			return nil, fmt.Errorf("duplicate platform id: %s", id)
		}
		rule.ID = id
		reg.order = append(reg.order, id)
		reg.rules[id] = rule
	}
	return reg, nil
}

// Get returns the rule for id.
func (r *Registry) Get(id string) (Rule, bool) {
	if r == nil {
		return Rule{}, false
	}
	rule, ok := r.rules[strings.TrimSpace(id)]
	return rule, ok
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// All returns rules in registration order.
func (r *Registry) All() []Rule {
	if r == nil {
		return nil
	}
	out := make([]Rule, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.rules[id])
	}
	return out
}

// IDs returns platform ids in registration order.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

// Validate checks that every id is registered and returns the unknown ones
// sorted in the error.
func (r *Registry) Validate(ids []string) error {
	var unknown []string
	for _, id := range ids {
		if !r.Has(id) {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("unknown platform ids: %s", strings.Join(unknown, ", "))
}

var defaultRegistry = mustRegistry(defaultRules()...)

// Default returns the built-in registry.
func Default() *Registry {
	return defaultRegistry
}

func mustRegistry(rules ...Rule) *Registry {
	reg, err := NewRegistry(rules...)
	if err != nil {
		panic(err)
	}
	return reg
}

// defaultRules is a static approximation of each platform's public limits.
func defaultRules() []Rule {
	return []Rule{
		{ID: "twitter", DisplayName: "X (Twitter)", CharLimit: 280, URLCost: FixedCount(23), Hashtags: HashtagRange{Min: 1, Max: 2}, Tone: ToneCasual,
			Share: Template("https://twitter.com/intent/tweet?text={text}&url={url}")},
		{ID: "facebook", DisplayName: "Facebook", CharLimit: 63206, URLCost: ActualLength(), Hashtags: HashtagRange{Min: 0, Max: 3}, Tone: ToneConversational,
			Share: Template("https://www.facebook.com/sharer/sharer.php?u={url}&quote={text}")},
		{ID: "linkedin", DisplayName: "LinkedIn", CharLimit: 3000, URLCost: ActualLength(), Hashtags: HashtagRange{Min: 3, Max: 5}, Tone: ToneProfessional,
			Share: Template("https://www.linkedin.com/sharing/share-offsite/?url={url}")},
		{ID: "instagram", DisplayName: "Instagram", CharLimit: 2200, URLCost: ActualLength(), Hashtags: HashtagRange{Min: 5, Max: 30}, Tone: ToneVisual,
			Share: NoShare()},
		{ID: "threads", DisplayName: "Threads", CharLimit: 500, URLCost: ActualLength(), Hashtags: HashtagRange{Min: 0, Max: 1}, Tone: ToneConversational,
			Share: Template("https://www.threads.net/intent/post?text={text}%20{url}")},
		{ID: "bluesky", DisplayName: "Bluesky", CharLimit: 300, URLCost: ActualLength(), Hashtags: HashtagRange{Min: 0, Max: 2}, Tone: ToneCasual,
			Share: Template("https://bsky.app/intent/compose?text={text}%20{url}")},
		{ID: "mastodon", DisplayName: "Mastodon", CharLimit: 500, URLCost: FixedCount(23), Hashtags: HashtagRange{Min: 1, Max: 3}, Tone: ToneCommunity,
			Share: NoShare()},
		{ID: "reddit", DisplayName: "Reddit", CharLimit: 40000, URLCost: ActualLength(), Hashtags: HashtagRange{Min: 0, Max: 0}, Tone: ToneCommunity,
			Share: Template("https://www.reddit.com/submit?url={url}&title={text}")},
		{ID: "tiktok", DisplayName: "TikTok", CharLimit: 2200, URLCost: ActualLength(), Hashtags: HashtagRange{Min: 3, Max: 5}, Tone: ToneCasual,
			Share: NoShare()},
		{ID: "youtube", DisplayName: "YouTube Community", CharLimit: 5000, URLCost: ActualLength(), Hashtags: HashtagRange{Min: 1, Max: 3}, Tone: ToneInformative,
			Share: NoShare()},
		{ID: "pinterest", DisplayName: "Pinterest", CharLimit: 500, URLCost: ActualLength(), Hashtags: HashtagRange{Min: 2, Max: 5}, Tone: ToneVisual,
			Share: Template("https://pinterest.com/pin/create/button/?url={url}&description={text}")},
		{ID: "tumblr", DisplayName: "Tumblr", CharLimit: 4096, URLCost: ActualLength(), Hashtags: HashtagRange{Min: 1, Max: 10}, Tone: ToneCasual,
			Share: Template("https://www.tumblr.com/widgets/share/tool?canonicalUrl={url}&caption={text}")},
		{ID: "telegram", DisplayName: "Telegram", CharLimit: 4096, URLCost: ActualLength(), Hashtags: HashtagRange{Min: 0, Max: 0}, Tone: TonePersonal,
			Share: Template("https://t.me/share/url?url={url}&text={text}")},
		{ID: "whatsapp", DisplayName: "WhatsApp", CharLimit: 65536, URLCost: ActualLength(), Hashtags: HashtagRange{Min: 0, Max: 0}, Tone: TonePersonal,
			Share: Template("https://wa.me/?text={text}%20{url}")},
		{ID: "discord", DisplayName: "Discord", CharLimit: 2000, URLCost: ActualLength(), Hashtags: HashtagRange{Min: 0, Max: 0}, Tone: ToneCommunity,
			Share: NoShare()},
		{ID: "slack", DisplayName: "Slack", CharLimit: 40000, URLCost: ActualLength(), Hashtags: HashtagRange{Min: 0, Max: 0}, Tone: ToneProfessional,
			Share: NoShare()},
		{ID: "snapchat", DisplayName: "Snapchat", CharLimit: 250, URLCost: ActualLength(), Hashtags: HashtagRange{Min: 0, Max: 3}, Tone: ToneCasual,
			Share: Template("https://www.snapchat.com/scan?attachmentUrl={url}")},
		{ID: "hackernews", DisplayName: "Hacker News", CharLimit: 80, URLCost: FixedCount(0), Hashtags: HashtagRange{Min: 0, Max: 0}, Tone: ToneInformative,
			Share: Template("https://news.ycombinator.com/submitlink?u={url}&t={text}")},
		{ID: "vk", DisplayName: "VK", CharLimit: 15895, URLCost: ActualLength(), Hashtags: HashtagRange{Min: 0, Max: 5}, Tone: ToneConversational,
			Share: Template("https://vk.com/share.php?url={url}&title={text}")},
		{ID: "line", DisplayName: "LINE", CharLimit: 10000, URLCost: ActualLength(), Hashtags: HashtagRange{Min: 0, Max: 0}, Tone: TonePersonal,
			Share: Template("https://social-plugins.line.me/lineit/share?url={url}&text={text}")},
		{ID: "email", DisplayName: "Email", CharLimit: 100000, URLCost: ActualLength(), Hashtags: HashtagRange{Min: 0, Max: 0}, Tone: ToneProfessional,
			Share: Template("mailto:?body={text}%0A%0A{url}")},
	}
}
