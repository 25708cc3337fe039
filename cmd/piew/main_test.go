package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceArgs(t *testing.T) {
	assert.Equal(t, []string{"."}, sourceArgs(nil), "no arguments browses the current directory")
	assert.Equal(t, []string{"."}, sourceArgs([]string{}))
	assert.Equal(t, []string{"/pics", "x.png"}, sourceArgs([]string{"/pics", "x.png"}))
}
