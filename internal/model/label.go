package model

import "time"

type Label struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	TaskCount int `json:"taskCount"`
}

func (l Label) Key() string { return l.ID }

func (l Label) Clone() Label { return l }

type LabelInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func NewLabel(id, ownerID string, in LabelInput, now time.Time) Label {
	return Label{
		ID:        id,
		Name:      in.Name,
		Color:     in.Color,
		Icon:      in.Icon,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type LabelPatch struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
	Icon  *string `json:"icon,omitempty"`
}

func (p LabelPatch) Empty() bool {
	return p == LabelPatch{}
}

func (p LabelPatch) Apply(l Label) Label {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Color != nil {
		l.Color = *p.Color
	}
	if p.Icon != nil {
		l.Icon = *p.Icon
	}
	return l
}

type LabelQuery struct {
	Page     int
	PageSize int
}
