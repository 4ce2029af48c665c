// Command podcaster is the command-line client for the podcaster daemon.
//
// Each pipeline step has its own subcommand (fetch, summarize, podcast,
// generate) alongside record listings and daemon control. Run without
// arguments on a terminal it opens the interactive numbered menu.
package main
