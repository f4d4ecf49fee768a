package languages

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	assert.True(t, Valid(JavaScript))
	assert.True(t, Valid(Python))
	assert.False(t, Valid("rust"))
	assert.False(t, Valid(""))
}

func TestTemplate(t *testing.T) {
	assert.True(t, strings.HasPrefix(Template(JavaScript), "// Write your JavaScript code here"))
	assert.True(t, strings.HasPrefix(Template(Python), "# Write your Python code here"))

	// unknown languages fall back to the default template
	assert.Equal(t, Template(Default), Template("rust"))
}

func TestAll(t *testing.T) {
	all := All()

	assert.Len(t, all, 2)

	for _, lang := range all {
		assert.True(t, Valid(lang))
	}
}
