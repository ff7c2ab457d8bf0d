// Package config provides the gateway configuration.
//
// Configuration is read from a YAML file, then overridden by SCHEMAGATE_*
// environment variables, then defaulted:
//
//	app:
//	  mode: bap
//	  gateway:
//	    mode: client
//	  schemaDir: schemas
//	  useLayer2Config: true
//	  mandateLayer2Config: false
//	  openAPIValidator:
//	    cachedFileLimit: 5
//	server:
//	  port: 5001
//	log:
//	  level: info
//	  format: json
//
// The capacity of the validator cache and the number of schemas preloaded at
// startup are both taken from app.openAPIValidator.cachedFileLimit.
package config
