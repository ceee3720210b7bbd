package podcast

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/smehrotra/docpod/internal/domain/docModel"
	"github.com/smehrotra/docpod/internal/rag/llm"
)

const scriptSystemPrompt = "You are a professional podcast script writer. " +
	"Write a natural, engaging two-person conversation between hosts Alex and Jordan discussing the given document. " +
	"Alex leads the conversation and Jordan adds insight and asks clarifying questions. " +
	"Prefix every line with [ALEX:] or [JORDAN:] to mark the speaker. " +
	"Keep the tone conversational and accessible to a general audience."

var (
	alexTag   = regexp.MustCompile(`(?i)^\[?ALEX:?\]?:?\s*`)
	jordanTag = regexp.MustCompile(`(?i)^\[?JORDAN:?\]?:?\s*`)
)

// generateScript asks the model for the two-host conversation covering
// the document.
func generateScript(ctx context.Context, provider llm.Provider, name string, content string) (string, error) {
	prompt := fmt.Sprintf("Write a podcast script in which Alex and Jordan discuss the document %q. "+
		"Base the conversation on this content:\n\n%s", name, content)
	return provider.Complete(ctx, scriptSystemPrompt, prompt)
}

// ParseScript splits a tagged script into per-speaker segments. A tag may
// carry its text on the same line or stand alone with the text following;
// untagged lines continue the current speaker's segment, and lines before
// the first tag are discarded.
func ParseScript(script string) []docModel.PodcastSegment {
	var segments []docModel.PodcastSegment
	var current docModel.Speaker
	pending := false

	for _, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var text string
		switch {
		case alexTag.MatchString(line):
			current = docModel.SpeakerAlex
			text = strings.TrimSpace(alexTag.ReplaceAllString(line, ""))
		case jordanTag.MatchString(line):
			current = docModel.SpeakerJordan
			text = strings.TrimSpace(jordanTag.ReplaceAllString(line, ""))
		default:
			if current == "" {
				continue
			}
			if pending {
				segments = append(segments, docModel.PodcastSegment{Speaker: current, Text: line})
				pending = false
			} else {
				segments[len(segments)-1].Text += " " + line
			}
			continue
		}

		if text == "" {
			// bare tag line, the speaker's text follows on later lines
			pending = true
			continue
		}
		segments = append(segments, docModel.PodcastSegment{Speaker: current, Text: text})
		pending = false
	}
	return segments
}
