// Package cli implements the schemagate command line.
//
// Commands register themselves on the root command from their init
// functions. Every command reads the gateway configuration through the
// persistent --config flag; environment overrides (SCHEMAGATE_*) and
// defaults are applied on top.
package cli
