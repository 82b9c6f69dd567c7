package core

import "context"

// Embedder 是文本向量化的领域接口：相同输入必须得到完全相同的向量。
//
// 实现：
//   - embedding.HashingEmbedder：本地确定性特征哈希
//   - embedding.RemoteEmbedder：OpenAI 兼容的 /embeddings 服务
type Embedder interface {
	Name() string

	// Dimension 返回输出向量维度 D
	Dimension() int

	// Embed 返回长度为 D 的向量；空串是合法输入
	Embed(ctx context.Context, text string) ([]float64, error)
}
