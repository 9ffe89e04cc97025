package sng

import (
	"strings"

	"go.uber.org/zap"

	"songqs/internal/logging"
)

// ValidateVerseOrder checks that the VerseOrder header and the content
// blocks cover each other: every order entry names an existing block (or
// STOP) and every block appears in the order.
func (f *File) ValidateVerseOrder(fix bool) bool {
	if order := f.Header.VerseOrder(); order != nil {
		covered := true
		for _, entry := range order {
			if entry != "STOP" && !f.hasBlockNamed(entry) {
				covered = false
				break
			}
		}
		listed := true
		for _, b := range f.Blocks {
			if !containsString(order, b.OrderName()) {
				listed = false
				break
			}
		}
		if covered && listed {
			return true
		}
	}

	if fix {
		return f.fixVerseOrder()
	}

	logging.L().Warn("verse order and blocks do not match", zap.String("file", f.Name))
	if !f.Header.Has("VerseOrder") {
		logging.L().Debug("missing VerseOrder", zap.String("file", f.Name))
	} else {
		logging.L().Debug("mismatch not fixed",
			zap.Strings("order", f.Header.VerseOrder()),
			zap.Strings("blocks", f.blockNames()),
			zap.String("file", f.Name))
	}
	return false
}

// fixVerseOrder appends blocks missing from VerseOrder and drops order
// entries that no block provides, keeping STOP.
func (f *File) fixVerseOrder() bool {
	order := f.Header.VerseOrder()

	for _, b := range f.Blocks {
		if !containsString(order, b.OrderName()) {
			order = append(order, b.OrderName())
		}
	}

	kept := order[:0]
	for _, entry := range order {
		if entry == "STOP" || f.hasBlockNamed(entry) {
			kept = append(kept, entry)
		}
	}

	f.Header.SetVerseOrder(kept)
	logging.L().Debug("fixed VerseOrder",
		zap.Strings("order", kept), zap.String("file", f.Name))
	f.markModified()
	return true
}

// FixIntroSlide ensures an Intro entry heads the VerseOrder and an empty
// Intro block exists, so operators always have a neutral slide to start
// on.
func (f *File) FixIntroSlide() {
	order := f.Header.VerseOrder()
	if !containsString(order, "Intro") {
		f.Header.SetVerseOrder(append([]string{"Intro"}, order...))
		f.markModified()
		logging.L().Debug("added Intro to VerseOrder", zap.String("file", f.Name))
	}

	if f.Block("Intro") == nil {
		intro := &Block{Label: []string{"Intro"}, Slides: [][]string{{}}}
		f.Blocks = append([]*Block{intro}, f.Blocks...)
		f.markModified()
		logging.L().Debug("added Intro block", zap.String("file", f.Name))
	}
}

// ValidateStop checks for a STOP entry in VerseOrder. With shouldBeAtEnd
// a STOP anywhere else is removed first so the song does not cut off
// early.
func (f *File) ValidateStop(fix, shouldBeAtEnd bool) bool {
	result := true
	order := f.Header.VerseOrder()

	if shouldBeAtEnd && containsString(order, "STOP") && order[len(order)-1] != "STOP" {
		if fix {
			order = removeString(order, "STOP")
			f.Header.SetVerseOrder(order)
			f.markModified()
			logging.L().Debug("removed STOP at old position",
				zap.String("file", f.Name))
		} else {
			logging.L().Warn("STOP not at end and not fixed",
				zap.Strings("order", order), zap.String("file", f.Name))
			result = false
		}
	}

	if !containsString(order, "STOP") {
		if fix {
			order = append(order, "STOP")
			f.Header.SetVerseOrder(order)
			f.markModified()
			logging.L().Debug("added STOP at end of VerseOrder",
				zap.Strings("order", order), zap.String("file", f.Name))
		} else {
			logging.L().Warn("STOP missing and not fixed",
				zap.Strings("order", order), zap.String("file", f.Name))
			result = false
		}
	}
	return result
}

// ValidateVerseNumbers checks verse labels for non-standard qualifiers
// like "1b". The fix strips letters from the qualifier, merging blocks
// that collapse onto an existing label. Custom "$$M=" labels are free
// form and left alone.
func (f *File) ValidateVerseNumbers(fix bool) bool {
	valid := true
	var blocks []*Block

	for _, b := range f.Blocks {
		if len(b.Label) > 0 && b.Label[0] == "$$M=" {
			blocks = append(blocks, b)
			continue
		}

		if b.labelValid() {
			blocks = append(blocks, b)
			continue
		}

		if !fix || len(b.Label) < 2 {
			valid = false
			logging.L().Debug("invalid verse label not fixed",
				zap.Strings("label", b.Label), zap.String("file", f.Name))
			blocks = append(blocks, b)
			continue
		}

		oldName := b.Name()
		newLabel := []string{b.Label[0], digitsOnly(b.Label[1])}
		newName := strings.Join(newLabel, " ")

		if existing := blockNamed(blocks, newName); existing != nil {
			logging.L().Debug("appending to existing verse label",
				zap.String("from", oldName), zap.String("to", newName),
				zap.String("file", f.Name))
			existing.Slides = append(existing.Slides, b.Slides...)
			f.Header.SetVerseOrder(removeString(f.Header.VerseOrder(), oldName))
		} else {
			logging.L().Debug("renamed verse label",
				zap.String("from", oldName), zap.String("to", newName),
				zap.String("file", f.Name))
			f.Header.SetVerseOrder(replaceString(f.Header.VerseOrder(), oldName, newName))
			b.Label = newLabel
			blocks = append(blocks, b)
		}
		f.markModified()
	}

	f.Blocks = blocks
	return valid
}

func (b *Block) labelValid() bool {
	if len(b.Label) == 0 || !isVerseMarker(b.Label[0]) {
		return false
	}
	if len(b.Label) > 1 && !isDigits(b.Label[1]) {
		return false
	}
	return true
}

// ValidateSlideLineCount checks that every slide except a block's last
// has exactly linesPerSlide lines and the last at most that many. The
// fix re-flows all lines of the block into fresh slides.
func (f *File) ValidateSlideLineCount(linesPerSlide int, fix bool) bool {
	for _, b := range f.Blocks {
		if len(b.Slides) == 0 {
			continue
		}

		issues := len(b.Slides[len(b.Slides)-1]) > linesPerSlide
		for _, slide := range b.Slides[:len(b.Slides)-1] {
			if len(slide) != linesPerSlide {
				issues = true
				break
			}
		}
		if !issues {
			continue
		}
		if !fix {
			return false
		}

		logging.L().Debug("re-flowing block slides",
			zap.String("block", b.Name()), zap.Int("lines", linesPerSlide),
			zap.String("file", f.Name))
		var all []string
		for _, slide := range b.Slides {
			all = append(all, slide...)
		}
		b.Slides = nil
		for i := 0; i < len(all); i += linesPerSlide {
			end := min(i+linesPerSlide, len(all))
			b.Slides = append(b.Slides, all[i:end])
		}
		f.markModified()
	}
	return true
}

// GenerateVersesFromUnknown splits an "Unknown" block into labeled
// verse and chorus blocks by scanning each slide's first line for a
// marker like "Refrain 1:" or a bare leading number. Slides before the
// first detected marker stay in Unknown; the VerseOrder entry for
// Unknown is replaced by the new labels. Returns the created blocks,
// nil when there was nothing to split.
func (f *File) GenerateVersesFromUnknown() []*Block {
	unknown := f.Block("Unknown")
	if unknown == nil {
		return nil
	}
	logging.L().Info("splitting Unknown block", zap.String("file", f.Name))

	current := unknown
	var remaining [][]string
	var created []*Block

	for _, slide := range unknown.Slides {
		if len(slide) == 0 {
			continue
		}
		label, rest := DetectVerseMarker(slide[0])
		if label == nil {
			if current == unknown {
				remaining = append(remaining, slide)
			} else {
				current.Slides = append(current.Slides, slide)
			}
			continue
		}

		if label[len(label)-1] == "" {
			label = label[:len(label)-1]
		}
		name := strings.Join(label, " ")
		logging.L().Debug("detected verse label in Unknown block",
			zap.String("label", name), zap.String("file", f.Name))

		newSlide := append([]string{rest}, slide[1:]...)
		if existing := blockNamed(created, name); existing != nil {
			existing.Slides = [][]string{newSlide}
			current = existing
			continue
		}
		current = &Block{Label: label, Slides: [][]string{newSlide}}
		created = append(created, current)
	}

	unknown.Slides = remaining
	ordered := created
	if len(remaining) > 0 {
		ordered = append([]*Block{unknown}, created...)
	}

	names := make([]string, len(ordered))
	for i, b := range ordered {
		names[i] = b.Name()
	}

	order := f.Header.VerseOrder()
	for i, entry := range order {
		if entry == "Unknown" {
			order = append(order[:i], append(names, order[i+1:]...)...)
			f.Header.SetVerseOrder(order)
			break
		}
	}

	var blocks []*Block
	for _, b := range f.Blocks {
		if b != unknown {
			blocks = append(blocks, b)
		}
	}
	f.Blocks = append(blocks, ordered...)

	logging.L().Info("replaced Unknown in VerseOrder",
		zap.Strings("labels", names), zap.String("file", f.Name))
	f.markModified()
	return created
}

func (f *File) hasBlockNamed(orderName string) bool {
	for _, b := range f.Blocks {
		if b.Name() == orderName || b.OrderName() == orderName {
			return true
		}
	}
	return false
}

func (f *File) blockNames() []string {
	names := make([]string, len(f.Blocks))
	for i, b := range f.Blocks {
		names[i] = b.Name()
	}
	return names
}

func blockNamed(blocks []*Block, name string) *Block {
	for _, b := range blocks {
		if b.Name() == name {
			return b
		}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

func replaceString(list []string, old, repl string) []string {
	for i, v := range list {
		if v == old {
			list[i] = repl
		}
	}
	return list
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
