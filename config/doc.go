// Package config loads the store configuration from YAML.
//
//	sqlite:
//	  uri: file:app.db
//	  pragmas:
//	    foreign_keys: "1"
//	    busy_timeout: "5000"
//	  max_open_conns: 1
//
// Pragmas are turned into DSN parameters in the form the compiled-in engine
// expects.
package config
