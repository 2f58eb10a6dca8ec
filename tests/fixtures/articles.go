// Package fixtures provides reusable test data generators. Generated
// articles are deterministic, so tests asserting on token counts or
// similarity rankings stay stable across runs.
package fixtures

import (
	"fmt"
	"strings"
	"time"

	"interlocutor/internal/domain/entity"
)

// Topic selects the vocabulary a generated article draws from. Articles on
// the same topic share most of their terms, so their TF-IDF vectors score
// high cosine similarity; articles on different topics share almost none.
type Topic string

const (
	TopicAviation Topic = "aviation"
	TopicEconomy  Topic = "economy"
	TopicFootball Topic = "football"
	TopicClimate  Topic = "climate"
)

var topicSentences = map[Topic][]string{
	TopicAviation: {
		"The airline confirmed an order for forty narrowbody aircraft during the annual airshow.",
		"Deliveries of the new jets begin next year, the carrier said in a statement.",
		"Rising fuel costs have pushed several low-cost carriers to retire older aircraft early.",
		"The manufacturer expects the widebody backlog to stretch well into the next decade.",
		"Regulators cleared the updated flight control software after months of certification tests.",
		"Airport slot constraints remain the biggest obstacle to the airline's expansion plans.",
	},
	TopicEconomy: {
		"The central bank held interest rates steady for the third consecutive meeting.",
		"Inflation cooled to its lowest level in two years, the statistics office reported.",
		"Economists warned that wage growth continues to outpace productivity gains.",
		"The treasury revised its growth forecast downward amid weak consumer spending.",
		"Bond yields fell sharply after the governor hinted at cuts later this year.",
		"Unemployment figures surprised analysts, holding firm despite the slowdown.",
	},
	TopicFootball: {
		"The striker scored twice in the second half to seal a comfortable home victory.",
		"The manager defended his squad rotation after a disappointing away draw.",
		"A late penalty kept the club's title hopes alive going into the final fixtures.",
		"The transfer window closed with the midfielder's move still unresolved.",
		"Injuries in defence have forced the coach to promote two academy players.",
		"Supporters protested the ticket price increase before kickoff on Saturday.",
	},
	TopicClimate: {
		"Scientists recorded the warmest ocean surface temperatures since measurements began.",
		"The summit ended without agreement on phasing out fossil fuel subsidies.",
		"Drought conditions across the region have halved the expected grain harvest.",
		"New satellite data shows glacier retreat accelerating in the eastern ranges.",
		"The government unveiled incentives for rooftop solar and heat pump installations.",
		"Coastal towns are drafting relocation plans as sea levels continue to rise.",
	},
}

// GenerateArticle returns a deterministic article body on the given topic.
// The seed offsets which sentences appear, so distinct articles on one topic
// overlap heavily without being identical.
func GenerateArticle(topic Topic, paragraphs, seed int) string {
	sentences, ok := topicSentences[topic]
	if !ok {
		sentences = topicSentences[TopicEconomy]
	}
	if paragraphs <= 0 {
		paragraphs = 2
	}

	const sentencesPerParagraph = 3
	var parts []string
	for p := 0; p < paragraphs; p++ {
		var para []string
		for s := 0; s < sentencesPerParagraph; s++ {
			idx := (seed + p*sentencesPerParagraph + s) % len(sentences)
			para = append(para, sentences[idx])
		}
		parts = append(parts, strings.Join(para, " "))
	}
	return strings.Join(parts, "\n\n")
}

// MetadataOption customizes a generated metadata record.
type MetadataOption func(*entity.ArticleMetadata)

// WithSource sets the publication name.
func WithSource(source string) MetadataOption {
	return func(m *entity.ArticleMetadata) { m.Source = source }
}

// WithSection sets the section.
func WithSection(section string) MetadataOption {
	return func(m *entity.ArticleMetadata) { m.Section = section }
}

// WithTitle sets the title.
func WithTitle(title string) MetadataOption {
	return func(m *entity.ArticleMetadata) { m.Title = title }
}

// WithPublishedAt sets the publication timestamp.
func WithPublishedAt(t time.Time) MetadataOption {
	return func(m *entity.ArticleMetadata) { m.PublishedAt = t }
}

// WithWebURL sets the human-facing URL.
func WithWebURL(u string) MetadataOption {
	return func(m *entity.ArticleMetadata) { m.WebURL = u }
}

// NewTestMetadata builds a metadata record keyed by naturalKey, with the
// identity derived the same way ingestion derives it. Options override the
// defaults.
func NewTestMetadata(naturalKey string, opts ...MetadataOption) *entity.ArticleMetadata {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	meta := &entity.ArticleMetadata{
		ID:          entity.NewArticleID(naturalKey),
		Source:      "test-source",
		NaturalKey:  naturalKey,
		Section:     "news",
		Title:       fmt.Sprintf("Article %s", naturalKey),
		PublishedAt: now,
		WebURL:      "https://example.com/" + naturalKey,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(meta)
	}
	return meta
}
