// Package textutil turns provider markup into narration-ready plain text and
// derives safe file names from query text.
package textutil
