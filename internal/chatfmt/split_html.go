package chatfmt

import "strings"

// SplitTelegramHTML is the Telegram HTML variant of SplitMarkdown: it
// tracks the exact opening <pre> / <pre><code class="language-X">
// tag across splits and closes each chunk with the matching
// </code></pre> or </pre>, reopening it at the start of the next
// chunk (spec §4.5).
func SplitTelegramHTML(html string, limit PlatformLimit) []Chunk {
	l := int(limit)
	if len(html) <= l {
		return []Chunk{{Text: html}}
	}

	var chunks []Chunk
	remaining := html
	var reopenTag string

	for {
		full := reopenTag + remaining
		if len(full) <= l {
			chunks = append(chunks, Chunk{Text: full})
			break
		}

		cut := largestNewlineAtOrBelow(full, l)
		if cut <= 0 {
			cut = floorCharBoundary(full, l)
		}
		piece := full[:cut]
		rest := strings.TrimPrefix(full[cut:], "\n")

		openTag, closeTag := openPreTagState(piece)
		if openTag != "" {
			piece += closeTag
			reopenTag = openTag
		} else {
			reopenTag = ""
		}

		chunks = append(chunks, Chunk{Text: piece})
		remaining = rest
		if remaining == "" {
			break
		}
	}
	return chunks
}

// openPreTagState reports whether piece ends inside an open <pre> or
// <pre><code ...> block, returning the exact tag to reopen with and
// the matching close tag.
func openPreTagState(piece string) (reopen, closeTag string) {
	lastOpen := lastIndexOfAny(piece, []string{"<pre><code", "<pre>"})
	if lastOpen < 0 {
		return "", ""
	}
	afterOpen := piece[lastOpen:]
	closedAfter := strings.Contains(afterOpen, "</pre>")
	if closedAfter {
		return "", ""
	}

	if strings.HasPrefix(afterOpen, "<pre><code") {
		end := strings.IndexByte(afterOpen, '>')
		if end < 0 {
			return "<pre><code>", "</code></pre>"
		}
		tag := afterOpen[:end+1]
		return tag, "</code></pre>"
	}
	return "<pre>", "</pre>"
}

func lastIndexOfAny(s string, subs []string) int {
	best := -1
	for _, sub := range subs {
		if i := strings.LastIndex(s, sub); i > best {
			best = i
		}
	}
	return best
}
