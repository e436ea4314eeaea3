package model

import (
	"encoding/json"
	"regexp"
	"time"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

func ValidColor(c string) bool {
	return hexColor.MatchString(c)
}

type List struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Color      string    `json:"color"`
	Emoji      *string   `json:"emoji,omitempty"`
	IsFavorite bool      `json:"isFavorite"`
	OwnerID    string    `json:"ownerId"`
	Position   int       `json:"position"`
	Version    int       `json:"version"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	// Derived on read, never stored.
	TaskCount      int `json:"taskCount"`
	CompletedCount int `json:"completedCount"`
}

func (l List) Key() string { return l.ID }

func (l List) Clone() List {
	c := l
	c.Emoji = clonePtr(l.Emoji)
	return c
}

type ListInput struct {
	Name       string  `json:"name"`
	Color      string  `json:"color,omitempty"`
	Emoji      *string `json:"emoji,omitempty"`
	IsFavorite bool    `json:"isFavorite,omitempty"`
	Position   *int    `json:"position,omitempty"`
}

const DefaultListColor = "#6366f1"

func NewList(id, ownerID string, in ListInput, now time.Time) List {
	l := List{
		ID:         id,
		Name:       in.Name,
		Color:      in.Color,
		Emoji:      clonePtr(in.Emoji),
		IsFavorite: in.IsFavorite,
		OwnerID:    ownerID,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if l.Color == "" {
		l.Color = DefaultListColor
	}
	if in.Position != nil {
		l.Position = *in.Position
	}
	return l
}

type ListPatch struct {
	Name       *string `json:"name,omitempty"`
	Color      *string `json:"color,omitempty"`
	Emoji      *string `json:"emoji,omitempty"`
	IsFavorite *bool   `json:"isFavorite,omitempty"`
	Position   *int    `json:"position,omitempty"`
	Version    *int    `json:"version,omitempty"`

	// ClearEmoji removes the emoji; an explicit "emoji": null sets it.
	ClearEmoji bool `json:"clearEmoji,omitempty"`
}

func (p *ListPatch) UnmarshalJSON(data []byte) error {
	type plain ListPatch
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}
	nulls, err := nullKeys(data)
	if err != nil {
		return err
	}
	p.ClearEmoji = p.ClearEmoji || nulls["emoji"]
	return nil
}

func (p ListPatch) Empty() bool {
	return p == ListPatch{}
}

func (p ListPatch) Apply(l List) List {
	l = l.Clone()
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Color != nil {
		l.Color = *p.Color
	}
	if p.Emoji != nil {
		l.Emoji = clonePtr(p.Emoji)
	}
	if p.ClearEmoji {
		l.Emoji = nil
	}
	if p.IsFavorite != nil {
		l.IsFavorite = *p.IsFavorite
	}
	if p.Position != nil {
		l.Position = *p.Position
	}
	return l
}

type ListQuery struct {
	Favorite *bool
	Page     int
	PageSize int
}
