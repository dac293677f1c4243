package main

import (
	"fmt"
	"io"

	"github.com/npillmayer/xshape/core/dimen"
	"github.com/npillmayer/xshape/core/font"
	"github.com/npillmayer/xshape/engine/glyphing"
	"github.com/pterm/pterm"
)

// report prints the glyph sequence as a table, one row per glyph.
func report(out io.Writer, seq glyphing.GlyphSequence, tc *font.TypeCase) {
	data := reportRows(seq, tc.GlyphName)
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		tracer().Errorf("cannot render glyph table: %v", err)
		return
	}
	fmt.Fprintf(out, "%d glyphs, direction %s, font %s at %gpt\n", seq.Len(), seq.Direction,
		tc.ScalableFontParent().Fontname, tc.PtSize())
	fmt.Fprintln(out, table)
}

// reportRows lists glyph name, cluster, advance, offset and the absolute
// position of every glyph. Positions are typographic, y grows upwards.
func reportRows(seq glyphing.GlyphSequence, name func(uint32) string) [][]string {
	data := [][]string{
		{"#", "glyph", "gid", "cluster", "advance", "offset", "position"},
	}
	pos := seq.Positions()
	for i, g := range seq.Glyphs {
		data = append(data, []string{
			fmt.Sprintf("%d", i),
			name(g.GID),
			fmt.Sprintf("%d", g.GID),
			fmt.Sprintf("%d", g.Cluster),
			fmt.Sprintf("(%g,%g)", dimen.Pixels(g.XAdvance), dimen.Pixels(g.YAdvance)),
			fmt.Sprintf("(%g,%g)", dimen.Pixels(g.XOffset), dimen.Pixels(g.YOffset)),
			fmt.Sprintf("(%g,%g)", dimen.Pixels(pos[i].X), dimen.Pixels(pos[i].Y)),
		})
	}
	return data
}
