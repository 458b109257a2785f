package server

import (
	"math/rand"
)

// 昵称词库：玩家没报昵称时随机起一个
var (
	adjectives = []string{
		"勇敢的", "聪明的", "快乐的", "神秘的", "酷炫的",
		"优雅的", "沉稳的", "活泼的", "机智的", "潇洒的",
		"淡定的", "闪亮的", "傲娇的", "高冷的", "豪爽的",
	}

	nouns = []string{
		"牧羊人", "渔夫", "铁匠", "风笛手", "舞者",
		"棋手", "航海家", "登山客", "酿酒师", "说书人",
		"猎人", "石匠", "信使", "琴师", "守塔人",
	}
)

// GenerateNickname 生成随机昵称
func GenerateNickname() string {
	adj := adjectives[rand.Intn(len(adjectives))]
	noun := nouns[rand.Intn(len(nouns))]
	return adj + noun
}
