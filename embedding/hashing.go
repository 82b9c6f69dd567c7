package embedding

import (
	"context"

	"github.com/cespare/xxhash/v2"

	"github.com/rushteam/moodmeal/pkg/utils"
)

// DefaultDimension 是本地哈希嵌入的默认维度，与常见 MiniLM 句向量一致。
const DefaultDimension = 384

// HashingEmbedder 是确定性的本地嵌入：小写分词后，把一元词和相邻二元词
// 用 xxhash 散列到 D 个桶，哈希最高位决定符号，最后 L2 归一化。
// 相同文本永远得到逐位相同的向量；没有可用词时返回零向量。
type HashingEmbedder struct {
	dim          int
	bigramWeight float64
}

// NewHashingEmbedder 创建哈希嵌入器，dim <= 0 时使用 DefaultDimension。
func NewHashingEmbedder(dim int) *HashingEmbedder {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &HashingEmbedder{dim: dim, bigramWeight: 0.5}
}

func (h *HashingEmbedder) Name() string { return "hashing" }

func (h *HashingEmbedder) Dimension() int { return h.dim }

func (h *HashingEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, h.dim)
	tokens := utils.Tokenize(text)
	for i, tok := range tokens {
		h.add(vec, tok, 1)
		if i > 0 {
			h.add(vec, tokens[i-1]+" "+tok, h.bigramWeight)
		}
	}
	return Normalize(vec), nil
}

func (h *HashingEmbedder) add(vec []float64, feature string, w float64) {
	sum := xxhash.Sum64String(feature)
	idx := int(sum % uint64(h.dim))
	if sum>>63 == 1 {
		w = -w
	}
	vec[idx] += w
}
