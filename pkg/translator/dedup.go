package translator

// Miss 记忆库未命中的条目
type Miss struct {
	Index int
	Text  string
}

// Deduplicate 按原文精确去重
//
// unique 按首次出现的顺序排列，positions 记录每个原文对应的全部原始下标（升序）。
func Deduplicate(items []Miss) (unique []string, positions map[string][]int) {
	positions = make(map[string][]int, len(items))
	for _, item := range items {
		if _, seen := positions[item.Text]; !seen {
			unique = append(unique, item.Text)
		}
		positions[item.Text] = append(positions[item.Text], item.Index)
	}
	return unique, positions
}
