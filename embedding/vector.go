package embedding

import "math"

// CosineSimilarity 计算余弦相似度，结果在 [-1, 1]。
// 长度不同时较短的一方按 0 补齐；任一向量范数为 0 时返回 0。
func CosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		var x, y float64
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	switch {
	case math.IsNaN(s):
		return 0
	case s > 1:
		return 1
	case s < -1:
		return -1
	}
	return s
}

// Pad 返回长度为 n 的新向量：不足补 0，超出截断。
func Pad(v []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, v)
	return out
}

// Normalize 原地做 L2 归一化；零向量保持不变。
func Normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] *= inv
	}
	return v
}

// appendScaled 把 w·v 追加到 dst。
func appendScaled(dst, v []float64, w float64) []float64 {
	for _, x := range v {
		dst = append(dst, w*x)
	}
	return dst
}
