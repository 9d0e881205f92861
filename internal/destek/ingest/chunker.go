// Package ingest implements the offline document-ingestion pipeline: load a
// source document, split it into overlapping chunks, embed each chunk, and
// replace the knowledge-base collection. It runs as a batch job, independent
// of the chat-serving path.
package ingest

import "strings"

// separators, in preference order, used to find a natural break near the end
// of a chunk window.
var separators = []string{"\n\n", "\n", " "}

// SplitText splits text into chunks of at most size runes with the given
// overlap between consecutive chunks. Breaks prefer paragraph, then line,
// then word boundaries inside the window; a window with no separator is cut
// hard. Whitespace-only chunks are dropped.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(text)
	var chunks []string

	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			// Look for the latest natural break in the second half of the
			// window, so chunks stay reasonably sized.
			window := string(runes[start:end])
			cut := -1
			for _, sep := range separators {
				if i := strings.LastIndex(window, sep); i > len(window)/2 {
					cut = i + len(sep)
					break
				}
			}
			if cut > 0 {
				end = start + len([]rune(window[:cut]))
			}
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end == len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}
