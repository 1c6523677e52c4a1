package editor

// FloodFill 从种子坐标开始，按 4 连通（西、东、北、南）广度优先地把与种子原颜色相同的区域
// 替换为 newColor，返回被修改的单元格数量。
//
// 越界坐标只是遍历的终止条件，不是错误；种子越界时什么都不填充。
// 邻居在出队时才检查边界和颜色，所以同一坐标可能多次入队，但只会被修改一次。
func FloodFill(l *Layer, x, y int, newColor Color) int {
	grid := l.grid
	if !grid.Contains(x, y) {
		return 0
	}
	target := l.at(x, y)
	if target == newColor {
		return 0
	}

	filled := 0
	queue := []Point{{X: x, Y: y}}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		if !grid.Contains(p.X, p.Y) {
			continue
		}
		current := l.at(p.X, p.Y)
		if current != target || current == newColor {
			continue
		}

		l.colors[p] = newColor
		filled++
		queue = append(queue,
			Point{X: p.X - 1, Y: p.Y},
			Point{X: p.X + 1, Y: p.Y},
			Point{X: p.X, Y: p.Y - 1},
			Point{X: p.X, Y: p.Y + 1},
		)
	}
	return filled
}
