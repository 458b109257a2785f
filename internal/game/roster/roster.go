// Package roster 管理对局内的玩家、队伍和 echku 顺序。
// echku 顺序是 Mus 的行动顺序：头手先行动，每局结束后整体轮转一位。
package roster

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mickaelseznec/mus/internal/apperrors"
	"github.com/mickaelseznec/mus/internal/game/card"
)

// TeamCount 固定两队对抗
const TeamCount = 2

// Player 对局内的玩家。
// ID 是私有凭证（默认 uuid，也可由调用方指定），PublicID 是桌面上可见的座位号。
type Player struct {
	ID       string
	PublicID int

	CanSpeak bool // 当前是否轮到该玩家行动
	team     *Team
	cards    []card.Card
}

// TeamID 玩家所在队伍编号，未入队时为 -1
func (p *Player) TeamID() int {
	if p.team == nil {
		return -1
	}
	return p.team.ID
}

// Cards 玩家当前手牌
func (p *Player) Cards() []card.Card {
	return p.cards
}

// SetCards 直接设置手牌（快照恢复和测试用）
func (p *Player) SetCards(cards []card.Card) {
	p.cards = append(p.cards[:0], cards...)
	card.Sort(p.cards)
}

// DrawNewHand 从牌堆抽 4 张作为新手牌
func (p *Player) DrawNewHand(deck *card.Deck) {
	p.cards = p.cards[:0]
	for range HandSize {
		p.cards = append(p.cards, deck.Draw())
	}
	card.Sort(p.cards)
}

// ExchangeCards 把指定牌位的牌换成牌堆新牌，之后重新排序
func (p *Player) ExchangeCards(indices map[int]bool, deck *card.Deck) {
	for index := range indices {
		p.cards[index] = deck.Exchange(p.cards[index])
	}
	card.Sort(p.cards)
}

func (p *Player) String() string {
	return fmt.Sprintf("Player(public_id=%d, team_id=%d)", p.PublicID, p.TeamID())
}

// HandSize 每人固定 4 张手牌
const HandSize = 4

// Team 一支队伍：1v1 时各 1 人，2v2 时各 2 人
type Team struct {
	ID      int
	Players []*Player
	Score   int // 本局累计分
	Games   int // 赢下的局数
}

func (t *Team) remove(p *Player) {
	for i, other := range t.Players {
		if other == p {
			t.Players = append(t.Players[:i], t.Players[i+1:]...)
			return
		}
	}
}

// Manager 维护两支队伍和 echku 顺序
type Manager struct {
	Teams     [TeamCount]*Team
	echku     []*Player // 头手在前
	idCounter int
	maxScore  int
}

// NewManager 创建空的玩家管理器，maxScore 是本局的目标分
func NewManager(maxScore int) *Manager {
	return &Manager{
		Teams:    [TeamCount]*Team{{ID: 0}, {ID: 1}},
		maxScore: maxScore,
	}
}

// OppositeTeamID 返回对方队伍编号
func OppositeTeamID(teamID int) int {
	return (teamID + 1) % TeamCount
}

// MaxScore 本局的目标分
func (m *Manager) MaxScore() int { return m.maxScore }

// WellConfigured 两队人数相等且为 1v1 或 2v2 时才能开局
func (m *Manager) WellConfigured() bool {
	size := len(m.Teams[0].Players)
	return size == len(m.Teams[1].Players) && (size == 1 || size == 2)
}

// AllPlayersTeamOrdered 按队伍顺序返回所有玩家
func (m *Manager) AllPlayersTeamOrdered() []*Player {
	players := make([]*Player, 0, 2*TeamCount)
	for _, team := range m.Teams {
		players = append(players, team.Players...)
	}
	return players
}

// AllPlayersEchkuOrdered 按 echku 顺序返回所有玩家，头手在前
func (m *Manager) AllPlayersEchkuOrdered() []*Player {
	return m.echku
}

// TeamPlayers 返回指定队伍的玩家
func (m *Manager) TeamPlayers(teamID int) []*Player {
	return m.Teams[teamID].Players
}

// PlayerByID 按私有 id 查找玩家，不存在时返回 nil
func (m *Manager) PlayerByID(playerID string) *Player {
	for _, player := range m.AllPlayersTeamOrdered() {
		if player.ID == playerID {
			return player
		}
	}
	return nil
}

// PlayerByPublicID 按座位号查找玩家，不存在时返回 nil
func (m *Manager) PlayerByPublicID(publicID int) *Player {
	for _, player := range m.AllPlayersTeamOrdered() {
		if player.PublicID == publicID {
			return player
		}
	}
	return nil
}

// AddPlayer 把玩家加入指定队伍。
// 重复加入同一队是幂等的；换队会先从原队移除；目标队满员时拒绝。
// playerID 为空时分配新的 uuid；非空且未入座时沿用调用方提供的 id，
// 牌桌层直接用客户端 id 入座，之后所有动作都以该 id 寻址。
func (m *Manager) AddPlayer(playerID string, teamID int) (*Player, error) {
	if teamID < 0 || teamID >= TeamCount {
		return nil, apperrors.ErrForbidden
	}

	player := m.PlayerByID(playerID)
	if player != nil && player.TeamID() == teamID {
		return player, nil
	}

	if len(m.Teams[teamID].Players) >= 2 {
		return nil, apperrors.ErrForbidden
	}

	if player == nil {
		player = m.newPlayer(playerID)
	} else {
		m.detach(player)
	}
	m.attach(player, teamID)

	return player, nil
}

// RemovePlayer 把玩家移出队伍；不存在时静默返回
func (m *Manager) RemovePlayer(playerID string) {
	if player := m.PlayerByID(playerID); player != nil {
		m.detach(player)
	}
}

// InitEchkuOrder 开局时按两队交错建立 echku 顺序
func (m *Manager) InitEchkuOrder() {
	m.echku = m.echku[:0]
	for i := range m.Teams[0].Players {
		m.echku = append(m.echku, m.Teams[0].Players[i], m.Teams[1].Players[i])
	}
}

// StepEchkuOrder 每局结束后头手移到队尾，次位成为新头手
func (m *Manager) StepEchkuOrder() {
	if len(m.echku) == 0 {
		return
	}
	m.echku = append(m.echku[1:], m.echku[0])
}

// SetAuthorizedPlayer 只允许指定玩家行动
func (m *Manager) SetAuthorizedPlayer(speaking *Player) {
	for _, player := range m.AllPlayersTeamOrdered() {
		player.CanSpeak = player == speaking
	}
}

// SetAuthorizedTeam 允许整队行动
func (m *Manager) SetAuthorizedTeam(teamID int) {
	for _, player := range m.AllPlayersTeamOrdered() {
		player.CanSpeak = player.TeamID() == teamID
	}
}

// AuthorizeOppositeTeam 把行动权交给对方整队
func (m *Manager) AuthorizeOppositeTeam(teamID int) {
	m.SetAuthorizedTeam(OppositeTeamID(teamID))
}

// AddPoints 给队伍加分，分数封顶在目标分。
// 返回该队是否因此达到目标分赢下本局。
func (m *Manager) AddPoints(points, teamID int) (won bool) {
	team := m.Teams[teamID]
	team.Score += points
	if team.Score >= m.maxScore {
		team.Score = m.maxScore
		return true
	}
	return false
}

// WinnerTeam 返回达到目标分的队伍，没有时返回 nil
func (m *Manager) WinnerTeam() *Team {
	for _, team := range m.Teams {
		if team.Score >= m.maxScore {
			return team
		}
	}
	return nil
}

// IsFinished 是否有队伍达到目标分
func (m *Manager) IsFinished() bool {
	return m.WinnerTeam() != nil
}

// ResetScores 清零两队的本局得分（新一场比赛开始时）
func (m *Manager) ResetScores() {
	for _, team := range m.Teams {
		team.Score = 0
	}
}

func (m *Manager) newPlayer(playerID string) *Player {
	if playerID == "" {
		playerID = uuid.New().String()
	}
	player := &Player{
		ID:       playerID,
		PublicID: m.idCounter,
	}
	m.idCounter++
	return player
}

func (m *Manager) detach(player *Player) {
	player.team.remove(player)
	player.team = nil
}

func (m *Manager) attach(player *Player, teamID int) {
	team := m.Teams[teamID]
	team.Players = append(team.Players, player)
	player.team = team
}
