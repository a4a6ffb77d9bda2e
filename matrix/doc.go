// Package matrix 把用户-物品交互记录物化为稠密的 0/1 占用矩阵。
//
// 行为用户，列为物品，均按 ID 升序排列；两张索引表（用户→行、物品→列）
// 把任意 int64 ID 映射到连续下标。矩阵构建后只读，临时画像通过
// WithVirtualRow 以"复制后扩展"的方式追加一行，不修改原矩阵，
// 因此同一个基础矩阵可以被并发请求共享。
package matrix
