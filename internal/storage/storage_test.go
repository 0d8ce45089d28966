package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", DetectContentType([]byte("%PDF-1.7\n%âãÏÓ\n1 0 obj"), "slides.bin"))
	assert.Equal(t, "image/png", DetectContentType([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), "diagram.png"))

	got := DetectContentType([]byte("name,score\nada,10\ngrace,9\n"), "scores.csv")
	assert.True(t, strings.HasPrefix(got, "text/csv"), got)

	got = DetectContentType([]byte("just some notes"), "notes.txt")
	assert.True(t, strings.HasPrefix(got, "text/plain"), got)
}

func TestExtensionMIME(t *testing.T) {
	assert.Equal(t, "text/csv", extensionMIME("A.CSV"))
	assert.Equal(t, "text/markdown", extensionMIME("readme.md"))
	assert.Empty(t, extensionMIME("archive.zip"))
}
