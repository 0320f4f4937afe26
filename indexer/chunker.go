package indexer

import (
	"context"
	"sort"
	"strings"

	"github.com/w-h-a/medichat/store"
)

const (
	// below this many sentences the text is not worth splitting
	minSentences = 3

	// breakpoint percentile over the distance gradient
	gradientPercentile = 95.0
)

// semanticChunks splits text at semantic boundaries. It embeds each sentence,
// takes the cosine distance between neighbors, and breaks wherever the
// distance gradient spikes above the configured percentile.
func (s *Service) semanticChunks(ctx context.Context, text string) ([]string, error) {
	sentences := splitSentences(text)

	if len(sentences) == 0 {
		return nil, nil
	}

	if len(sentences) < minSentences {
		return []string{strings.Join(sentences, " ")}, nil
	}

	embeddings := make([][]float32, len(sentences))
	for i, sentence := range sentences {
		vec, err := s.options.Embedder.Embed(ctx, sentence)
		if err != nil {
			return nil, err
		}
		embeddings[i] = vec
	}

	distances := make([]float64, len(embeddings)-1)
	for i := 0; i < len(embeddings)-1; i++ {
		distances[i] = 1 - store.CosineSimilarity(embeddings[i], embeddings[i+1])
	}

	gradients := make([]float64, 0, len(distances)-1)
	for i := 1; i < len(distances); i++ {
		gradients = append(gradients, distances[i]-distances[i-1])
	}

	if len(gradients) == 0 {
		return []string{strings.Join(sentences, " ")}, nil
	}

	threshold := percentile(gradients, gradientPercentile)

	var chunks []string
	start := 0

	for i, g := range gradients {
		// gradient index i compares distances[i] and distances[i+1], so a
		// spike breaks after sentence i+1
		if g >= threshold && g > 0 {
			end := i + 2
			chunks = append(chunks, strings.Join(sentences[start:end], " "))
			start = end
		}
	}

	if start < len(sentences) {
		chunks = append(chunks, strings.Join(sentences[start:], " "))
	}

	return chunks, nil
}

func splitSentences(text string) []string {
	var sentences []string
	var sb strings.Builder

	flush := func() {
		if s := strings.TrimSpace(sb.String()); len(s) > 0 {
			sentences = append(sentences, s)
		}
		sb.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		sb.WriteRune(r)

		switch r {
		case '.', '!', '?':
			flush()
		case '\n':
			if i > 0 && runes[i-1] == '\n' {
				flush()
			}
		}
	}
	flush()

	return sentences
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	idx := int(float64(len(sorted)-1) * p / 100.0)

	return sorted[idx]
}
