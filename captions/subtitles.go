package captions

import (
	"fmt"
	"strings"

	"story-shorts-pipeline/config"
	"story-shorts-pipeline/types"
)

// SRT renders windows as plain SRT subtitles, one entry per window. Used by
// quick mode and saved next to every transcript for convenience.
func SRT(windows []types.CaptionWindow) string {
	var sb strings.Builder
	for i, win := range windows {
		sb.WriteString(fmt.Sprintf("%d\n", i+1))
		sb.WriteString(fmt.Sprintf("%s --> %s\n", srtTime(win.Start), srtTime(win.End)))
		sb.WriteString(win.Text())
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// ASS renders windows as an ASS subtitle track with per-word karaoke
// highlighting. Each window stays on screen for its full display range;
// within it, the active word is recolored exactly during its own span.
// Window transitions fade over the configured crossfade margin.
func ASS(windows []types.CaptionWindow, cfg *config.CaptionsConfig, width, height int) string {
	var sb strings.Builder

	sb.WriteString("[Script Info]\n")
	sb.WriteString("ScriptType: v4.00+\n")
	sb.WriteString(fmt.Sprintf("PlayResX: %d\nPlayResY: %d\n\n", width, height))

	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	sb.WriteString(fmt.Sprintf("Style: Karaoke,%s,%d,%s,%s,%s,&H00000000,1,0,0,0,100,100,0,0,1,%.0f,0,5,40,40,%d,1\n\n",
		cfg.Font, cfg.FontSize,
		assColor(cfg.Color), assColor(cfg.HighlightColor), assColor(cfg.StrokeColor),
		cfg.StrokeWidth, cfg.MarginBottom,
	))

	sb.WriteString("[Events]\n")
	sb.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	fadeMs := int(cfg.CrossfadeSec * 1000)
	for _, win := range windows {
		writeWindowEvents(&sb, win, assColor(cfg.HighlightColor), assColor(cfg.Color), fadeMs)
	}
	return sb.String()
}

// writeWindowEvents emits one dialogue line per highlight interval. The
// intervals partition [win.Start, win.End): during a word's own span its
// text is highlighted, and between words the whole line shows plain.
func writeWindowEvents(sb *strings.Builder, win types.CaptionWindow, highlight, plain string, fadeMs int) {
	type interval struct {
		start, end float64
		active     int // word index highlighted, -1 for none
	}
	var ivs []interval

	cursor := win.Start
	for i, w := range win.Words {
		if w.Start > cursor {
			ivs = append(ivs, interval{cursor, w.Start, -1})
			cursor = w.Start
		}
		end := w.End
		if end > win.End {
			end = win.End
		}
		if end > cursor {
			ivs = append(ivs, interval{cursor, end, i})
			cursor = end
		}
	}
	if cursor < win.End {
		ivs = append(ivs, interval{cursor, win.End, -1})
	}

	for n, iv := range ivs {
		var fade string
		switch {
		case len(ivs) == 1:
			fade = fmt.Sprintf("{\\fad(%d,%d)}", fadeMs, fadeMs)
		case n == 0:
			fade = fmt.Sprintf("{\\fad(%d,0)}", fadeMs)
		case n == len(ivs)-1:
			fade = fmt.Sprintf("{\\fad(0,%d)}", fadeMs)
		}

		var text strings.Builder
		for i, w := range win.Words {
			if i > 0 {
				text.WriteString(" ")
			}
			if i == iv.active {
				text.WriteString(fmt.Sprintf("{\\c%s}%s{\\c%s}", highlight, escapeASS(w.Text), plain))
			} else {
				text.WriteString(escapeASS(w.Text))
			}
		}

		sb.WriteString(fmt.Sprintf("Dialogue: 0,%s,%s,Karaoke,,0,0,0,,%s%s\n",
			assTime(iv.start), assTime(iv.end), fade, text.String()))
	}
}

var assColors = map[string]string{
	"white":  "&H00FFFFFF",
	"yellow": "&H0000FFFF",
	"black":  "&H00000000",
	"red":    "&H000000FF",
	"green":  "&H0000FF00",
	"blue":   "&H00FF0000",
	"cyan":   "&H00FFFF00",
}

func assColor(name string) string {
	if c, ok := assColors[strings.ToLower(name)]; ok {
		return c
	}
	return assColors["white"]
}

func escapeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return s
}

// assTime formats seconds as H:MM:SS.cc (centisecond precision).
func assTime(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	cs := int(sec*100 + 0.5)
	return fmt.Sprintf("%d:%02d:%02d.%02d", cs/360000, cs/6000%60, cs/100%60, cs%100)
}

// srtTime formats seconds as HH:MM:SS,mmm.
func srtTime(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	ms := int(sec*1000 + 0.5)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}
