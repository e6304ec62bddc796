package chatfmt

import "strings"

// PlatformLimit is the maximum message length for a chat surface.
type PlatformLimit int

const (
	TelegramLimit PlatformLimit = 4096
	DiscordLimit  PlatformLimit = 2000
)

// Chunk is one piece of a long message, already carrying any fence
// reopen/close markers the splitter introduced.
type Chunk struct {
	Text string
}

// SplitMarkdown implements the shared long-message splitter contract
// of spec §4.5: if the text fits, it is returned unchanged as a
// single chunk. Otherwise it splits at the largest newline at or
// below limit (respecting UTF-8 char boundaries); a chunk that ends
// inside an unclosed code fence gets a closing fence appended (the cut
// moves back far enough for the chunk to stay within limit), and the
// next chunk gets a reopening fence with the same language hint
// prepended. The closing and reopening markers are always three
// backticks, whatever the length of the original fence.
func SplitMarkdown(text string, limit PlatformLimit) []Chunk {
	l := int(limit)
	if len(text) <= l {
		return []Chunk{{Text: text}}
	}

	var chunks []Chunk
	remaining := text
	var reopenFence string

	for {
		full := reopenFence + remaining
		if len(full) <= l {
			chunks = append(chunks, Chunk{Text: full})
			break
		}

		cut := largestNewlineAtOrBelow(full, l)
		if cut <= 0 {
			cut = floorCharBoundary(full, l)
		}
		piece := full[:cut]
		rest := full[cut:]
		rest = strings.TrimPrefix(rest, "\n")

		lang, open := openFenceState(piece)
		if open && len(piece)+len("\n```") > l {
			// Move the cut back so the appended close still fits.
			cut = largestNewlineAtOrBelow(full, l-len("\n```"))
			if cut <= 0 {
				cut = floorCharBoundary(full, l-len("\n```"))
			}
			piece = full[:cut]
			rest = strings.TrimPrefix(full[cut:], "\n")
			lang, open = openFenceState(piece)
		}
		if open {
			piece = piece + "\n```"
			reopenFence = "```" + lang + "\n"
		} else {
			reopenFence = ""
		}

		chunks = append(chunks, Chunk{Text: piece})
		remaining = rest
		if remaining == "" {
			break
		}
	}
	return chunks
}

func largestNewlineAtOrBelow(s string, limit int) int {
	if limit > len(s) {
		limit = len(s)
	}
	idx := strings.LastIndexByte(s[:limit], '\n')
	if idx < 0 {
		return 0
	}
	return idx
}

// floorCharBoundary returns the greatest j <= i that is a valid UTF-8
// char boundary in s (or len(s) if i >= len(s)) — spec invariant 6.
func floorCharBoundary(s string, i int) int {
	if i >= len(s) {
		return len(s)
	}
	if i <= 0 {
		return 0
	}
	j := i
	for j > 0 && isUTF8ContinuationByte(s[j]) {
		j--
	}
	return j
}

func isUTF8ContinuationByte(b byte) bool {
	return b&0xC0 == 0x80
}

// CloseOpenFence appends a closing ``` to text if it ends inside an
// unclosed code fence, so a display frame never ends mid-fence even
// when the buffer itself is short enough to need no splitting.
func CloseOpenFence(text string) string {
	if _, open := openFenceState(text); open {
		return text + "\n```"
	}
	return text
}

// openFenceState scans piece for an odd number of ``` fence markers,
// meaning piece ends inside an open code block, and returns the
// language hint of the last-opened fence.
func openFenceState(piece string) (lang string, open bool) {
	idx := 0
	count := 0
	lastLang := ""
	for {
		i := strings.Index(piece[idx:], "```")
		if i < 0 {
			break
		}
		start := idx + i
		count++
		if count%2 == 1 {
			// opening fence: read language hint up to newline
			rest := piece[start+3:]
			nl := strings.IndexByte(rest, '\n')
			if nl >= 0 {
				lastLang = rest[:nl]
			} else {
				lastLang = ""
			}
		}
		idx = start + 3
	}
	return lastLang, count%2 == 1
}
