package card

import (
	"math/rand/v2"
	"slices"
)

// Deck 牌堆：抽牌堆 + 弃牌堆。
// 不变量：|抽牌堆| + |弃牌堆| + 玩家手中的牌 = 40。
type Deck struct {
	drawable  []Card
	discarded []Card
	rng       *rand.Rand
}

// NewDeck 创建一副完整的、已洗好的牌。
// rng 为 nil 时使用全局随机源；测试可注入固定种子保证可复现。
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{rng: rng}
	d.Restore()
	return d
}

// Restore 重建完整的 40 张牌并洗牌（每局结束后重新发牌用）
func (d *Deck) Restore() {
	d.drawable = d.drawable[:0]
	d.discarded = d.discarded[:0]
	for _, value := range Values {
		for _, suit := range Suits {
			d.drawable = append(d.drawable, Card{Value: value, Suit: suit})
		}
	}
	d.shuffle(d.drawable)
}

// Draw 抽一张牌；抽牌堆空时先把弃牌堆洗回抽牌堆，永不失败
func (d *Deck) Draw() Card {
	if len(d.drawable) == 0 {
		d.refill()
	}
	c := d.drawable[len(d.drawable)-1]
	d.drawable = d.drawable[:len(d.drawable)-1]
	return c
}

// Discard 把一张牌放入弃牌堆
func (d *Deck) Discard(c Card) {
	d.discarded = append(d.discarded, c)
}

// Exchange 原子的先弃后抽（换牌阶段用）
func (d *Deck) Exchange(c Card) Card {
	d.Discard(c)
	return d.Draw()
}

// DrawableCount 抽牌堆剩余张数
func (d *Deck) DrawableCount() int { return len(d.drawable) }

// DiscardedCount 弃牌堆张数
func (d *Deck) DiscardedCount() int { return len(d.discarded) }

// refill 把弃牌堆洗成新的抽牌堆
func (d *Deck) refill() {
	d.drawable, d.discarded = d.discarded, d.drawable[:0]
	d.shuffle(d.drawable)
}

func (d *Deck) shuffle(cards []Card) {
	if d.rng != nil {
		d.rng.Shuffle(len(cards), func(i, j int) {
			cards[i], cards[j] = cards[j], cards[i]
		})
		return
	}
	rand.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// Sort 按 (Value, Suit) 升序排序一手牌
func Sort(cards []Card) {
	slices.SortFunc(cards, Compare)
}
