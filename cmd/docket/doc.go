// Command docket is the CLI for the docket extraction daemon: it runs
// the daemon process and manages a running daemon over its control API.
package main
