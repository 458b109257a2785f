package card

import (
	"fmt"
	"strconv"
)

// Suit 定义花色（巴斯克牌组的四种花色）
type Suit int

const (
	Copas   Suit = iota // 圣杯
	Espadas             // 宝剑
	Bastos              // 权杖
	Oros                // 金币
)

// suitNames 花色名称映射表
var suitNames = map[Suit]string{
	Copas:   "Copas",
	Espadas: "Espadas",
	Bastos:  "Bastos",
	Oros:    "Oros",
}

func (s Suit) String() string {
	if name, ok := suitNames[s]; ok {
		return name
	}
	return ""
}

// Suits 所有花色
var Suits = [...]Suit{Copas, Espadas, Bastos, Oros}

// Values 巴斯克牌组的十种点数（没有 8 和 9）
var Values = [...]int{1, 2, 3, 4, 5, 6, 7, 10, 11, 12}

// PacketSize 一副完整牌组的张数
const PacketSize = len(Values) * len(Suits)

// Card 定义一张牌，创建后不可变。
// 比牌只看 Value；(Value, Suit) 全序仅用于排序和序列化的确定性。
type Card struct {
	Value int  `json:"value"`
	Suit  Suit `json:"suit"`
}

// Points 返回计点值：人头牌（10/11/12）都按 10 计
func (c Card) Points() int {
	if c.Value > 10 {
		return 10
	}
	return c.Value
}

// Is 判断两张牌是否完全相同（点数和花色都相等）
func (c Card) Is(other Card) bool {
	return c.Value == other.Value && c.Suit == other.Suit
}

func (c Card) String() string {
	return strconv.Itoa(c.Value) + " de " + c.Suit.String()
}

// Compare 按 (Value, Suit) 的全序比较，仅用于确定性排序
func Compare(a, b Card) int {
	if a.Value != b.Value {
		return a.Value - b.Value
	}
	return int(a.Suit) - int(b.Suit)
}

// MarshalText 使 Suit 以名称序列化
func (s Suit) MarshalText() ([]byte, error) {
	if name, ok := suitNames[s]; ok {
		return []byte(name), nil
	}
	return nil, fmt.Errorf("unknown suit %d", int(s))
}

// UnmarshalText 从名称还原 Suit
func (s *Suit) UnmarshalText(text []byte) error {
	for suit, name := range suitNames {
		if name == string(text) {
			*s = suit
			return nil
		}
	}
	return fmt.Errorf("unknown suit %q", string(text))
}
