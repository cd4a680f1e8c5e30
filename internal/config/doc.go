// Package config loads scurl's optional YAML configuration file and merges
// it with command-line values.
//
// Configuration is searched in order:
//
//  1. the path given with --config
//  2. the path in $SCURL_CONFIG
//  3. $XDG_CONFIG_HOME/scurl/config.yaml (default ~/.config/scurl/config.yaml)
//
// A missing file in the search locations yields the defaults. A file named
// explicitly must exist.
//
// Example config.yaml:
//
//	headers:
//	  - "X-Client: scurl"
//	connect_timeout: 5s
//	max_time: 30s
//	rate: 2
//	history: ~/.local/share/scurl/history.db
//	color: false
package config
