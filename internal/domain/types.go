package domain

import (
	"fmt"
	"time"
)

type Review struct {
	ID        int64
	Name      string
	Age       int
	Rating    int
	Comment   string
	CreatedAt time.Time
	Approved  bool
	Rejected  bool
}

// ModerationState is the three-way moderation flag of a Review. It is stored
// as the (approved, rejected) boolean pair.
type ModerationState string

const (
	StatePending  ModerationState = "pending"
	StateApproved ModerationState = "approved"
	StateRejected ModerationState = "rejected"
)

// ParseModerationState accepts the lowercase state names used in URLs and forms.
func ParseModerationState(s string) (ModerationState, error) {
	switch st := ModerationState(s); st {
	case StatePending, StateApproved, StateRejected:
		return st, nil
	default:
		return "", fmt.Errorf("unknown moderation state %q", s)
	}
}

// Flags returns the (approved, rejected) pair for the state. (true, true) is
// never produced.
func (s ModerationState) Flags() (approved, rejected bool) {
	switch s {
	case StateApproved:
		return true, false
	case StateRejected:
		return false, true
	default:
		return false, false
	}
}

// State derives the moderation state from the stored flags. A row carrying
// both flags is reported as rejected so it never shows on the public page.
func (r *Review) State() ModerationState {
	switch {
	case r.Rejected:
		return StateRejected
	case r.Approved:
		return StateApproved
	default:
		return StatePending
	}
}

func (r *Review) SetState(s ModerationState) {
	r.Approved, r.Rejected = s.Flags()
}

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

type GalleryItem struct {
	ID           int64
	FileName     string
	FileURL      string
	FileType     MediaKind
	Caption      *string
	CreatedAt    time.Time
	DisplayOrder int
}

// CaptionText returns the caption or "" when none is set.
func (g *GalleryItem) CaptionText() string {
	if g.Caption == nil {
		return ""
	}
	return *g.Caption
}

// AltText is the caption when present, otherwise the original file name.
func (g *GalleryItem) AltText() string {
	if c := g.CaptionText(); c != "" {
		return c
	}
	return g.FileName
}

func (g *GalleryItem) IsVideo() bool {
	return g.FileType == MediaVideo
}
