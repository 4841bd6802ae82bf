// Package schemas embeds the Mangle programs shipped with the server.
package schemas

import _ "embed"

// Inventory declares the event predicates and the rules derived from them.
//
//go:embed inventory.mg
var Inventory []byte
