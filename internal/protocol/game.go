package protocol

// GameState 对局状态机的状态名
type GameState string

const (
	StateWaitingRoom GameState = "Waiting Room" // 等待配齐玩家
	StateSpeaking    GameState = "Speaking"     // 宣言：mus 还是 mintza
	StateTrading     GameState = "Trading"      // 换牌
	StateHaundia     GameState = "Haundia"      // 下注：比大
	StateTipia       GameState = "Tipia"        // 下注：比小
	StatePariak      GameState = "Pariak"       // 下注：对子
	StateJokua       GameState = "Jokua"        // 下注：点数
	StateFinished    GameState = "Finished"     // 结算
)

// ActionType 引擎动作名（按阶段开放）
type ActionType string

const (
	// Waiting Room
	ActionAddPlayer    ActionType = "add_player"
	ActionRemovePlayer ActionType = "remove_player"
	ActionStartGame    ActionType = "start_game"

	// Speaking
	ActionMus    ActionType = "mus"    // 同意重新换牌
	ActionMintza ActionType = "mintza" // 拒绝换牌，直接进入下注

	// Trading
	ActionChange ActionType = "change" // 整体设置要换的牌位
	ActionToggle ActionType = "toggle" // 翻转单个牌位

	// 下注阶段
	ActionPaso    ActionType = "paso"    // 过
	ActionImido   ActionType = "imido"   // 起注
	ActionGehiago ActionType = "gehiago" // 加注
	ActionIdoki   ActionType = "idoki"   // 跟注接受
	ActionTira    ActionType = "tira"    // 弃权
	ActionHordago ActionType = "hordago" // 全押
	ActionKanta   ActionType = "kanta"   // 接受全押

	// Trading / 跳过的下注阶段 / Finished 共用
	ActionConfirm ActionType = "confirm"

	// 任意阶段：查询自己的手牌（不进入公共状态）
	ActionGetCards ActionType = "get_cards"
)

// ResponseStatus 引擎应答状态
type ResponseStatus string

const (
	StatusOK          ResponseStatus = "OK"
	StatusForbidden   ResponseStatus = "Forbidden"
	StatusWrongPlayer ResponseStatus = "WrongPlayer"
)
