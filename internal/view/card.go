// Package view projects orchestrator snapshots into per-language cards.
package view

import (
	"strings"

	"github.com/tommyzki/tommyzki-translate/internal/language"
	"github.com/tommyzki/tommyzki-translate/internal/preview"
	"github.com/tommyzki/tommyzki-translate/internal/translation"
)

// Line is one rendered text. Secondary carries romaji on the Japanese card.
type Line struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary,omitempty"`
}

// Preview is the live preview area of a card. Message marks placeholder text.
type Preview struct {
	Line
	Message bool `json:"message"`
}

// Card is everything the UI needs to draw one language column.
type Card struct {
	Code         language.Code `json:"code"`
	Name         string        `json:"name"`
	Placeholder  string        `json:"placeholder"`
	IsSource     bool          `json:"is_source"`
	SourceLabel  string        `json:"source_label"`
	Preview      Preview       `json:"preview"`
	History      []Line        `json:"history"`
	EmptyHistory *Message      `json:"empty_history,omitempty"`
}

// BuildCard renders one card. It has no side effects.
func BuildCard(
	info language.Info,
	current *translation.Result,
	history []preview.HistoryEntry,
	loading bool,
	isSource bool,
	catalog *Catalog,
) Card {
	card := Card{
		Code:        info.Code,
		Name:        info.Name,
		Placeholder: info.Placeholder,
		IsSource:    isSource,
		SourceLabel: catalog.Message(info.Code, msgSource).Text,
		History:     make([]Line, 0, len(history)),
	}

	var line Line
	if current != nil {
		line = lineFor(info.Code, *current)
	}
	switch {
	case line.empty() && loading:
		card.Preview = messagePreview(catalog.Message(info.Code, msgLoading))
	case line.empty() && !isSource:
		card.Preview = messagePreview(catalog.Message(info.Code, msgAwaiting))
	default:
		card.Preview = Preview{Line: line}
	}

	for _, entry := range history {
		card.History = append(card.History, lineFor(info.Code, entry.Result))
	}
	if len(card.History) == 0 {
		msg := catalog.Message(info.Code, msgEmptyHistory)
		card.EmptyHistory = &msg
	}

	return card
}

// Cards builds all cards in UI order.
func Cards(snap preview.Snapshot, catalog *Catalog) []Card {
	infos := language.All()
	cards := make([]Card, 0, len(infos))
	for _, info := range infos {
		cards = append(cards, BuildCard(info, snap.Preview, snap.History, snap.Loading, snap.Detected == info.Code, catalog))
	}
	return cards
}

func lineFor(code language.Code, result translation.Result) Line {
	if code == language.Japanese {
		return Line{Primary: result.JA.Kanji, Secondary: result.JA.Romaji}
	}
	return Line{Primary: result.Text(code)}
}

func (l Line) empty() bool {
	return strings.TrimSpace(l.Primary) == "" && strings.TrimSpace(l.Secondary) == ""
}

func messagePreview(msg Message) Preview {
	return Preview{Line: Line{Primary: msg.Text, Secondary: msg.Romaji}, Message: true}
}
