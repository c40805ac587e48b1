package utils

import "unicode"

// SplitText splits a long string into chunks of approximately 'chunkSize'
// characters with an 'overlap' to preserve context at boundaries. Chunk
// ends prefer a nearby whitespace boundary so words are not cut in half.
func SplitText(text string, chunkSize int, overlap int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	totalLen := len(runes)

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize // fallback if overlap >= chunkSize
	}

	for i := 0; i < totalLen; i += step {
		end := i + chunkSize
		if end > totalLen {
			end = totalLen
		} else if soft := breakNear(runes, i, end); soft >= i+step {
			// Only soften the cut when no text would fall between this
			// chunk's end and the next chunk's start.
			end = soft
		}

		chunks = append(chunks, string(runes[i:end]))

		if end == totalLen {
			break
		}
	}

	return chunks
}

// breakNear walks back from end looking for whitespace within the last
// tenth of the chunk. No boundary found means a hard cut.
func breakNear(runes []rune, start, end int) int {
	floor := end - (end-start)/10
	for i := end - 1; i > floor; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return end
}
