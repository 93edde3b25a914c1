package entity

import "golang.org/x/text/unicode/norm"

// Card identifies one battle chip in a hand or queue.
type Card struct {
	PackageID string
	Code      byte
}

// Character is the component carried by player-controlled and NPC fighters
// (spec.md §3 Character).
type Character struct {
	Rank int

	// DisplayName is the fighter name a draw snapshot shows. Packages supply
	// it as arbitrary script-authored text, so it is normalized on the way
	// in rather than trusted as-is.
	DisplayName string

	// Cards is the ordered queue of chips selected for this turn, consumed
	// front-to-back by use_action (spec.md §4.1 step 5/§4.2.1 step 6).
	Cards []Card

	CardUseRequested bool

	// NextCardMutation, when set, is consulted immediately before the next
	// queued card is turned into an Action, letting a script rewrite it in
	// place (damage boosts, elemental overrides) without touching the
	// original hand selection (spec.md §4.2.1 step 6).
	NextCardMutation func(Card) Card

	// CardIndexMap maps a displayed (post-sort) card slot back to the index
	// it held in the original hand, so selection UI and cancel/redo logic
	// can invert a reordered display back to hand order.
	CardIndexMap []int
}

// SetDisplayName normalizes name to NFC before storing it, so names drawn
// from differently-encoded package sources compare and render consistently.
func (c *Character) SetDisplayName(name string) {
	c.DisplayName = norm.NFC.String(name)
}

func (c *Character) PopCard() (Card, bool) {
	if len(c.Cards) == 0 {
		return Card{}, false
	}
	card := c.Cards[0]
	if c.NextCardMutation != nil {
		card = c.NextCardMutation(card)
	}
	c.Cards = c.Cards[1:]
	if len(c.CardIndexMap) > 0 {
		c.CardIndexMap = c.CardIndexMap[1:]
	}
	return card, true
}

func (c *Character) Clone() *Character {
	cp := *c
	cp.Cards = append([]Card(nil), c.Cards...)
	cp.CardIndexMap = append([]int(nil), c.CardIndexMap...)
	return &cp
}
