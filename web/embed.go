// Package web embeds the assets the page surface serves.
package web

import "embed"

// Templates holds the layout, page and partial sources rendered by the
// view engine.
//
//go:embed templates/**/*.html
var Templates embed.FS

// Static holds the stylesheet and other files served under /static/.
//
//go:embed static/**/*
var Static embed.FS
