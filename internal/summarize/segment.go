package summarize

import "strings"

// Chunk is a contiguous run of words from the article, identified by its
// position in the sequence.
type Chunk struct {
	Index int
	Text  string
}

// Segment splits text into chunks of maxWords words. Every chunk except the
// last holds exactly maxWords words and the last holds the remainder. Text
// without words yields no chunks; maxWords <= 0 yields a single chunk.
func Segment(text string, maxWords int) []Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if maxWords <= 0 {
		maxWords = len(words)
	}

	chunks := make([]Chunk, 0, (len(words)+maxWords-1)/maxWords)
	for start := 0; start < len(words); start += maxWords {
		end := min(start+maxWords, len(words))
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  strings.Join(words[start:end], " "),
		})
	}
	return chunks
}
