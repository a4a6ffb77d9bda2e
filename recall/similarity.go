package recall

import (
	"math"
	"sort"

	"github.com/rushteam/cfkit/matrix"
)

// Cosine 计算两个向量的余弦相似度：dot(a,b) / (|a| * |b|)。
// 任一向量范数为 0 时返回 0；长度不一致时按较短的长度计算。
func Cosine(a, b []float64) float64 {
	n := min(len(a), len(b))
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	for i := n; i < len(a); i++ {
		normA += a[i] * a[i]
	}
	for i := n; i < len(b); i++ {
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Neighbor 是目标用户的一个邻居及其相似度。
type Neighbor struct {
	UserID     int64
	Similarity float64
}

// RankNeighbors 计算 target 与矩阵中其余每一行的余弦相似度，按相似度降序返回。
// 相似度相同的邻居保持矩阵行顺序（用户 ID 升序）。target 不在矩阵中时返回 nil。
func RankNeighbors(m *matrix.Matrix, target int64) []Neighbor {
	targetRow, ok := m.Row(target)
	if !ok {
		return nil
	}

	users := m.Users()
	out := make([]Neighbor, 0, len(users))
	for _, u := range users {
		if u == target {
			continue
		}
		row, _ := m.Row(u)
		out = append(out, Neighbor{UserID: u, Similarity: Cosine(targetRow, row)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	return out
}
