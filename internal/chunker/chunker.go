// Package chunker splits a scanned File into overlapping Chunks using a
// strategy selected by the file's type tag: line-aware for code,
// paragraph-aware for prose, and a fixed character window for everything
// else.
package chunker

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/repowiki/internal/scanner"
)

// DefaultChunkSize and DefaultOverlap are the pipeline's default Chunker
// parameters.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 100
)

// Chunk is a contiguous excerpt of a File, sized to fit within the
// configured chunk budget, carrying provenance back to its source file.
type Chunk struct {
	ID          string
	Content     string
	Ordinal     int
	TotalChunks int
	StartLine   int // 0 for paragraph and window chunks; a file that fits in one chunk always carries its full line range.
	EndLine     int
	Language    string
	FileType    scanner.FileType
	SourcePath  string
	ContentHash string
}

// ChunkFile splits file content into chunks according to the file's type tag.
// A chunkSize <= 0 falls back to DefaultChunkSize and a negative overlap to
// DefaultOverlap; an overlap of 0 means no overlap.
func ChunkFile(f scanner.File, chunkSize, overlap int) []Chunk {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}

	content := f.Content
	if len(content) <= chunkSize {
		return finalize([]Chunk{{
			Content:     content,
			StartLine:   1,
			EndLine:     lineCount(content),
			Language:    f.Language,
			FileType:    f.FileType,
			SourcePath:  f.RelPath,
			ContentHash: f.ContentHash,
		}}, f)
	}

	var raw []Chunk
	switch f.FileType {
	case scanner.TypeCode, scanner.TypeTest, scanner.TypeBuild:
		raw = chunkCode(content, chunkSize, overlap)
	case scanner.TypeDoc:
		raw = chunkDoc(content, chunkSize, overlap)
	default:
		raw = chunkWindow(content, chunkSize, overlap)
	}

	for i := range raw {
		raw[i].Language = f.Language
		raw[i].FileType = f.FileType
		raw[i].SourcePath = f.RelPath
		raw[i].ContentHash = f.ContentHash
	}

	return finalize(raw, f)
}

// finalize assigns dense ordinals, stable ids, and the total count.
func finalize(chunks []Chunk, f scanner.File) []Chunk {
	for i := range chunks {
		chunks[i].Ordinal = i
		chunks[i].TotalChunks = len(chunks)
		chunks[i].ID = fmt.Sprintf("%s#%d", f.RelPath, i)
	}
	return chunks
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

// chunkCode iterates lines, emitting a chunk whenever the running length
// plus the next line would exceed chunkSize, then begins the next chunk
// with an overlapping tail of the previous one's lines.
func chunkCode(content string, chunkSize, overlap int) []Chunk {
	lines := strings.Split(content, "\n")
	overlapLines := overlap / 50
	if overlapLines < 1 {
		overlapLines = 1
	}

	var chunks []Chunk
	var current []string
	currentLen := 0
	startLine := 1

	emit := func(endLine int) {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			Content:   strings.Join(current, "\n"),
			StartLine: startLine,
			EndLine:   endLine,
		})
	}

	for i, line := range lines {
		lineLen := len(line) + 1
		if currentLen+lineLen > chunkSize && len(current) > 0 {
			emit(startLine + len(current) - 1)

			tailCount := overlapLines
			if tailCount > len(current) {
				tailCount = len(current)
			}
			tail := current[len(current)-tailCount:]

			startLine = startLine + len(current) - tailCount
			current = append([]string{}, tail...)
			currentLen = 0
			for _, l := range current {
				currentLen += len(l) + 1
			}
		}
		current = append(current, line)
		currentLen += lineLen
		_ = i
	}
	emit(startLine + len(current) - 1)

	return chunks
}

// chunkDoc splits on blank-line-separated paragraphs and packs them
// greedily into chunkSize, carrying a tail of `overlap` characters from
// the previous chunk between emitted chunks.
func chunkDoc(content string, chunkSize, overlap int) []Chunk {
	paragraphs := splitParagraphs(content)

	var chunks []Chunk
	var builder strings.Builder
	var carry string

	flush := func() {
		text := builder.String()
		if strings.TrimSpace(text) == "" {
			return
		}
		chunks = append(chunks, Chunk{Content: text})

		switch {
		case overlap <= 0:
			carry = ""
		case len(text) > overlap:
			carry = text[len(text)-overlap:]
		default:
			carry = text
		}
	}

	for _, p := range paragraphs {
		candidate := p
		if builder.Len() == 0 && carry != "" {
			candidate = carry + "\n\n" + p
		}

		if builder.Len() > 0 && builder.Len()+2+len(p) > chunkSize {
			flush()
			builder.Reset()
			if carry != "" {
				builder.WriteString(carry)
				builder.WriteString("\n\n")
			}
			builder.WriteString(p)
			continue
		}

		if builder.Len() == 0 {
			builder.WriteString(candidate)
		} else {
			builder.WriteString("\n\n")
			builder.WriteString(p)
		}
	}
	if builder.Len() > 0 {
		chunks = append(chunks, Chunk{Content: builder.String()})
	}

	return chunks
}

func splitParagraphs(content string) []string {
	raw := strings.Split(content, "\n\n")
	var out []string
	for _, p := range raw {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		out = []string{content}
	}
	return out
}

// chunkWindow is a fixed-size sliding window of chunkSize characters
// advancing by chunkSize-overlap, used for config/data files.
func chunkWindow(content string, chunkSize, overlap int) []Chunk {
	stride := chunkSize - overlap
	if stride <= 0 {
		stride = chunkSize
	}

	var chunks []Chunk
	for start := 0; start < len(content); start += stride {
		end := start + chunkSize
		if end > len(content) {
			end = len(content)
		}
		chunks = append(chunks, Chunk{Content: content[start:end]})
		if end == len(content) {
			break
		}
	}
	return chunks
}
