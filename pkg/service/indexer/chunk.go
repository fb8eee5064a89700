package indexer

import (
	"regexp"
	"strings"

	"github.com/mentor-lab/chiron/pkg/domain/types"
)

// windowSize is the chunk size for files with no structural boundaries
const windowSize = 1000

// RawChunk is a chunk of file text before embedding. The content leaves
// scope as soon as the chunk is embedded; only the vector and hash survive.
type RawChunk struct {
	Content   string
	StartLine int
	EndLine   int
	ChunkType types.ChunkType
}

// declPattern marks lines that open a function, method, or class in the
// languages the gateway recognizes as code.
var declPattern = regexp.MustCompile(`^\s*(func |def |class |function |public |private |protected |impl |fn )`)

// Chunk splits file content by a strategy chosen from the file type:
// code by function/class boundary, documents by paragraph, everything
// else by fixed byte window.
func Chunk(content string, fileType types.FileType) []RawChunk {
	switch fileType {
	case types.FileCode:
		return chunkCode(content)
	case types.FileDocument:
		return chunkParagraphs(content)
	default:
		return chunkWindows(content)
	}
}

func chunkCode(content string) []RawChunk {
	lines := strings.Split(content, "\n")

	var chunks []RawChunk
	start := 0
	for i := 1; i < len(lines); i++ {
		if declPattern.MatchString(lines[i]) {
			chunks = appendCodeChunk(chunks, lines, start, i)
			start = i
		}
	}
	chunks = appendCodeChunk(chunks, lines, start, len(lines))

	return chunks
}

func appendCodeChunk(chunks []RawChunk, lines []string, start, end int) []RawChunk {
	text := strings.Join(lines[start:end], "\n")
	if strings.TrimSpace(text) == "" {
		return chunks
	}
	return append(chunks, RawChunk{
		Content:   text,
		StartLine: start + 1,
		EndLine:   end,
		ChunkType: types.ChunkFunction,
	})
}

func chunkParagraphs(content string) []RawChunk {
	var chunks []RawChunk

	lineNum := 1
	for _, para := range strings.Split(content, "\n\n") {
		lineCount := strings.Count(para, "\n") + 1
		if strings.TrimSpace(para) != "" {
			chunks = append(chunks, RawChunk{
				Content:   para,
				StartLine: lineNum,
				EndLine:   lineNum + lineCount - 1,
				ChunkType: types.ChunkParagraph,
			})
		}
		lineNum += lineCount + 1
	}

	return chunks
}

func chunkWindows(content string) []RawChunk {
	var chunks []RawChunk
	line := 1
	for i := 0; i < len(content); i += windowSize {
		end := i + windowSize
		if end > len(content) {
			end = len(content)
		}
		window := content[i:end]
		// A window ending exactly on a newline does not reach the next line.
		endLine := line + strings.Count(strings.TrimSuffix(window, "\n"), "\n")
		chunks = append(chunks, RawChunk{
			Content:   window,
			StartLine: line,
			EndLine:   endLine,
			ChunkType: types.ChunkWindow,
		})
		line += strings.Count(window, "\n")
	}
	return chunks
}
