package pdftext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractRejectsNonPDF(t *testing.T) {
	_, err := Extract([]byte("just some text, not a pdf"))
	assert.Error(t, err)
}

func TestExtractRejectsEmptyInput(t *testing.T) {
	_, err := Extract(nil)
	assert.Error(t, err)
}
