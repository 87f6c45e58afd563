package codecrafters

import "embed"

// EmbeddedAssets contains the stylesheet served at /public/style.css.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
