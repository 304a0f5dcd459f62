// Package budget derives per-conversation token budgets from the shape
// of the recent window. The assembler never decides budgets; it only
// fits within whatever this planner (or the caller) hands it.
package budget

import "github.com/fathom-chat/contextd/internal/turn"

// Profile summarizes the conversation window the budget is planned for.
type Profile struct {
	Depth          int
	MeanMessageLen float64
	ImageCount     int
}

// ProfileOf computes the profile of a raw turn window.
func ProfileOf(window []turn.Turn) Profile {
	p := Profile{Depth: len(window)}
	if len(window) == 0 {
		return p
	}
	totalLen := 0
	for _, t := range window {
		totalLen += len(t.Content)
		p.ImageCount += len(t.Attachments)
	}
	p.MeanMessageLen = float64(totalLen) / float64(len(window))
	return p
}

// Planner maps a profile to a token budget. Zero values fall back to the
// defaults.
type Planner struct {
	// Base is the budget for a shallow, text-only conversation.
	Base int
	// Max caps the planned budget regardless of profile.
	Max int
	// PerTurn grows the budget with conversation depth.
	PerTurn int
	// PerImage reserves room for each image attachment.
	PerImage int
}

// DefaultPlanner returns the standard planner settings.
func DefaultPlanner() Planner {
	return Planner{
		Base:     2048,
		Max:      8192,
		PerTurn:  96,
		PerImage: 256,
	}
}

// Plan returns the token budget for the profile. Longer messages widen
// the budget; the result is monotonic in depth, message length, and
// image count, and never exceeds Max.
func (p Planner) Plan(profile Profile) int {
	def := DefaultPlanner()
	if p.Base <= 0 {
		p.Base = def.Base
	}
	if p.Max <= 0 {
		p.Max = def.Max
	}
	if p.PerTurn <= 0 {
		p.PerTurn = def.PerTurn
	}
	if p.PerImage <= 0 {
		p.PerImage = def.PerImage
	}

	b := p.Base
	b += profile.Depth * p.PerTurn
	b += profile.ImageCount * p.PerImage

	// Verbose conversations need proportionally more room per turn.
	if profile.MeanMessageLen > 200 {
		b += profile.Depth * p.PerTurn / 2
	}

	if b > p.Max {
		b = p.Max
	}
	return b
}
