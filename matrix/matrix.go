package matrix

import (
	"maps"
	"slices"

	"github.com/rushteam/cfkit/core"
)

// Matrix 是用户×物品的二值占用矩阵。
// 每一行都拥有完整的列集合，缺失的交互记为 0。
type Matrix struct {
	users     []int64
	items     []int64
	userIndex map[int64]int
	itemIndex map[int64]int
	rows      [][]float64
}

// Build 根据交互记录构建占用矩阵。
// 同一 (user, item) 出现多次只记为 1；空输入得到 0 行 0 列的空矩阵。
func Build(interactions []core.Interaction) *Matrix {
	userSet := make(map[int64]struct{})
	itemSet := make(map[int64]struct{})
	for _, in := range interactions {
		userSet[in.UserID] = struct{}{}
		itemSet[in.ItemID] = struct{}{}
	}

	users := slices.Sorted(maps.Keys(userSet))
	items := slices.Sorted(maps.Keys(itemSet))

	m := &Matrix{
		users:     users,
		items:     items,
		userIndex: indexOf(users),
		itemIndex: indexOf(items),
		rows:      make([][]float64, len(users)),
	}
	for i := range m.rows {
		m.rows[i] = make([]float64, len(items))
	}
	for _, in := range interactions {
		m.rows[m.userIndex[in.UserID]][m.itemIndex[in.ItemID]] = 1
	}
	return m
}

func indexOf(ids []int64) map[int64]int {
	idx := make(map[int64]int, len(ids))
	for i, id := range ids {
		idx[id] = i
	}
	return idx
}

// NumUsers 返回行数。
func (m *Matrix) NumUsers() int { return len(m.users) }

// NumItems 返回列数。
func (m *Matrix) NumItems() int { return len(m.items) }

// Empty 矩阵没有任何行或列时为 true，表示没有推荐依据。
func (m *Matrix) Empty() bool {
	return m == nil || len(m.users) == 0 || len(m.items) == 0
}

// Users 返回按行顺序排列的用户 ID（副本）。
func (m *Matrix) Users() []int64 { return slices.Clone(m.users) }

// Items 返回按列顺序排列的物品 ID（副本）。
func (m *Matrix) Items() []int64 { return slices.Clone(m.items) }

func (m *Matrix) HasUser(userID int64) bool {
	_, ok := m.userIndex[userID]
	return ok
}

func (m *Matrix) HasItem(itemID int64) bool {
	_, ok := m.itemIndex[itemID]
	return ok
}

// Cell 返回 matrix[user][item]，未知的用户或物品返回 0。
func (m *Matrix) Cell(userID, itemID int64) float64 {
	r, ok := m.userIndex[userID]
	if !ok {
		return 0
	}
	c, ok := m.itemIndex[itemID]
	if !ok {
		return 0
	}
	return m.rows[r][c]
}

// Row 返回用户行向量的副本，列顺序与 Items 一致。
func (m *Matrix) Row(userID int64) ([]float64, bool) {
	r, ok := m.userIndex[userID]
	if !ok {
		return nil, false
	}
	return slices.Clone(m.rows[r]), true
}

// RowSum 返回用户交互过的物品数。
func (m *Matrix) RowSum(userID int64) int {
	r, ok := m.userIndex[userID]
	if !ok {
		return 0
	}
	var n int
	for _, v := range m.rows[r] {
		if v > 0 {
			n++
		}
	}
	return n
}

// UserItems 返回用户交互过的物品 ID，按列顺序。
func (m *Matrix) UserItems(userID int64) []int64 {
	r, ok := m.userIndex[userID]
	if !ok {
		return nil
	}
	out := make([]int64, 0)
	for c, v := range m.rows[r] {
		if v > 0 {
			out = append(out, m.items[c])
		}
	}
	return out
}
