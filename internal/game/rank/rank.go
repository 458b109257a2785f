// Package rank 实现 Mus 的四种比牌算法。
// 所有函数都是对 4 张手牌的纯函数，只在结算时调用。
package rank

import (
	"slices"

	"github.com/mickaelseznec/mus/internal/game/card"
)

// Kind 定义比牌方式
type Kind int

const (
	Haundia Kind = iota // 比大：点数降序逐张比较
	Tipia               // 比小：Haundia 的镜像，点数越小越强
	Pariak              // 对子：按牌型等级再比对子点数
	Jokua               // 点数：总和 ≥31 才算成牌，按固定优先表比较
)

// kindNames 比牌方式名称映射表
var kindNames = map[Kind]string{
	Haundia: "Haundia",
	Tipia:   "Tipia",
	Pariak:  "Pariak",
	Jokua:   "Jokua",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return ""
}

// Less 判断 a 是否严格弱于 b。每种 Kind 下都构成全预序（允许平局）。
func Less(k Kind, a, b []card.Card) bool {
	switch k {
	case Haundia:
		return haundiaLess(a, b)
	case Tipia:
		return tipiaLess(a, b)
	case Pariak:
		return pariakLess(a, b)
	case Jokua:
		return jokuaLess(a, b)
	}
	return false
}

// Bonus 返回这手牌的附加分（只有 Pariak 和 Jokua 有）
func Bonus(k Kind, hand []card.Card) int {
	switch k {
	case Pariak:
		return pairBonus(hand)
	case Jokua:
		return gameBonus(hand)
	}
	return 0
}

// HasPair 判断手牌是否至少有一个对子（Pariak 的参赛资格）
func HasPair(hand []card.Card) bool {
	for _, count := range valueCounts(hand) {
		if count >= 2 {
			return true
		}
	}
	return false
}

// HasGame 判断计点总和是否 ≥31（Jokua 的参赛资格）
func HasGame(hand []card.Card) bool {
	return Points(hand) >= gameThreshold
}

// Points 计点总和：人头牌都按 10 计
func Points(hand []card.Card) int {
	sum := 0
	for _, c := range hand {
		sum += c.Points()
	}
	return sum
}

// --- Haundia / Tipia ---

func sortedValues(hand []card.Card, descending bool) []int {
	values := make([]int, 0, len(hand))
	for _, c := range hand {
		values = append(values, c.Value)
	}
	slices.Sort(values)
	if descending {
		slices.Reverse(values)
	}
	return values
}

func haundiaLess(a, b []card.Card) bool {
	return slices.Compare(sortedValues(a, true), sortedValues(b, true)) < 0
}

// tipiaLess 是 haundiaLess 的镜像：升序序列字典序更大的一方更弱
func tipiaLess(a, b []card.Card) bool {
	return slices.Compare(sortedValues(a, false), sortedValues(b, false)) > 0
}

// --- Pariak ---

func valueCounts(hand []card.Card) map[int]int {
	counts := make(map[int]int, len(hand))
	for _, c := range hand {
		counts[c.Value]++
	}
	return counts
}

// pairBonus 牌型等级兼附加分：双对/四条=3，三条=2，单对=1，无对=0
func pairBonus(hand []card.Card) int {
	counts := valueCounts(hand)

	pairs, hasTriple, hasPair := 0, false, false
	for _, count := range counts {
		switch {
		case count == 4:
			return 3 // 四条拆成两个相同的对子
		case count == 3:
			hasTriple = true
		case count == 2:
			hasPair = true
			pairs++
		}
	}

	switch {
	case pairs == 2:
		return 3
	case hasTriple:
		return 2
	case hasPair:
		return 1
	}
	return 0
}

// pairedValues 返回参与比较的对子点数，降序。
// 四条拆成两个相同的对子，三条只算一个对子。
func pairedValues(hand []card.Card) []int {
	values := make([]int, 0, 2)
	for value, count := range valueCounts(hand) {
		if count == 4 {
			return []int{value, value}
		}
		if count >= 2 {
			values = append(values, value)
		}
	}
	slices.Sort(values)
	slices.Reverse(values)
	return values
}

func pariakLess(a, b []card.Card) bool {
	bonusA, bonusB := pairBonus(a), pairBonus(b)
	if bonusA != bonusB {
		return bonusA < bonusB
	}
	return slices.Compare(pairedValues(a), pairedValues(b)) < 0
}

// --- Jokua ---

const gameThreshold = 31

// jokuaOrder 成牌总和的固定优先表：31 最强，33 最弱
var jokuaOrder = [...]int{31, 32, 40, 37, 36, 35, 34, 33}

func jokuaIndex(sum int) int {
	for i, v := range jokuaOrder {
		if v == sum {
			return i
		}
	}
	return len(jokuaOrder)
}

func jokuaLess(a, b []card.Card) bool {
	sumA, sumB := Points(a), Points(b)
	specialA, specialB := sumA >= gameThreshold, sumB >= gameThreshold

	if specialA {
		if !specialB {
			return false
		}
		return jokuaIndex(sumA) > jokuaIndex(sumB)
	}
	// 未成牌的一方永远弱于成牌的一方；彼此之间按原始总和比较
	return sumA < sumB
}

// gameBonus Jokua 的附加分：31 得 3，超过 31 得 2，否则 1
func gameBonus(hand []card.Card) int {
	sum := Points(hand)
	switch {
	case sum == gameThreshold:
		return 3
	case sum > gameThreshold:
		return 2
	}
	return 1
}
