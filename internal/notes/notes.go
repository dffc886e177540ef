package notes

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"mindscribe/internal/align"
)

// speakerStats accumulates per-speaker talk time and utterance counts from
// the combined segment view.
type speakerStats struct {
	name       string
	talkTime   float64
	utterances int
	first      string
	last       string
}

// Generate renders a deterministic session note in Markdown from the
// combined (speaker-attributed) segments. It performs no semantic analysis;
// downstream tooling is responsible for interpretation.
func Generate(title string, recordedAt time.Time, durationSeconds float64, combined []align.Segment) string {
	var b strings.Builder

	if title == "" {
		title = "Session"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if !recordedAt.IsZero() {
		fmt.Fprintf(&b, "- Recorded: %s\n", recordedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(&b, "- Duration: %s\n", formatDuration(durationSeconds))
	fmt.Fprintf(&b, "- Utterances: %d\n", len(combined))

	stats := collectStats(combined)
	if len(stats) > 0 {
		b.WriteString("\n## Speakers\n\n")
		var total float64
		for _, s := range stats {
			total += s.talkTime
		}
		for _, s := range stats {
			share := 0.0
			if total > 0 {
				share = s.talkTime / total * 100
			}
			fmt.Fprintf(&b, "- %s: %s talk time (%.0f%%), %d utterances\n",
				s.name, formatDuration(s.talkTime), share, s.utterances)
		}

		b.WriteString("\n## Opening and closing remarks\n\n")
		for _, s := range stats {
			fmt.Fprintf(&b, "- %s opened with: %s\n", s.name, excerpt(s.first))
			if s.last != s.first {
				fmt.Fprintf(&b, "- %s closed with: %s\n", s.name, excerpt(s.last))
			}
		}
	}

	b.WriteString("\n## Transcript\n\n")
	for _, seg := range combined {
		fmt.Fprintf(&b, "[%s] %s: %s\n", formatTimestamp(seg.Start), seg.Speaker, strings.TrimSpace(seg.Text))
	}

	return b.String()
}

// collectStats aggregates per speaker, ordered by first appearance.
func collectStats(combined []align.Segment) []*speakerStats {
	byName := make(map[string]*speakerStats)
	var ordered []*speakerStats
	for _, seg := range combined {
		s, ok := byName[seg.Speaker]
		if !ok {
			s = &speakerStats{name: seg.Speaker, first: seg.Text}
			byName[seg.Speaker] = s
			ordered = append(ordered, s)
		}
		s.talkTime += seg.End - seg.Start
		s.utterances++
		s.last = seg.Text
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].talkTime > ordered[j].talkTime
	})
	return ordered
}

const excerptLimit = 120

func excerpt(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= excerptLimit {
		return text
	}
	cut := strings.LastIndex(text[:excerptLimit], " ")
	if cut <= 0 {
		cut = excerptLimit
	}
	return text[:cut] + "…"
}

func formatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
