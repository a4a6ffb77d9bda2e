package matrix

import (
	"maps"
	"math"
	"slices"
)

// VirtualUserID 返回一个不与任何真实用户冲突的保留 ID。
// 0 未被占用时使用 0，否则使用最小用户 ID 减一；
// 最小用户 ID 已是 math.MinInt64 时，取升序 ID 间的第一个空位。
func (m *Matrix) VirtualUserID() int64 {
	if !m.HasUser(0) {
		return 0
	}
	// users 升序且包含 0，users[0] <= 0
	if m.users[0] != math.MinInt64 {
		return m.users[0] - 1
	}
	for i := 1; i < len(m.users); i++ {
		if m.users[i-1]+1 < m.users[i] {
			return m.users[i-1] + 1
		}
	}
	// users 连续且从 MinInt64 开始，末尾必有空位
	return m.users[len(m.users)-1] + 1
}

// WithVirtualRow 在副本上追加一行虚拟用户，返回新矩阵与虚拟用户 ID。
//
// 只有已存在的列会被置 1，未知物品被忽略。原矩阵不被修改：
// 新矩阵共享原有行（只读），仅复制行表与用户索引。
func (m *Matrix) WithVirtualRow(items []int64) (*Matrix, int64) {
	id := m.VirtualUserID()

	row := make([]float64, len(m.items))
	for _, itemID := range items {
		if c, ok := m.itemIndex[itemID]; ok {
			row[c] = 1
		}
	}

	userIndex := maps.Clone(m.userIndex)
	if userIndex == nil {
		userIndex = make(map[int64]int, 1)
	}
	userIndex[id] = len(m.users)

	out := &Matrix{
		users:     append(slices.Clone(m.users), id),
		items:     m.items,
		userIndex: userIndex,
		itemIndex: m.itemIndex,
		rows:      append(slices.Clone(m.rows), row),
	}
	return out, id
}
