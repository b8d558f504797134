// Package config describes how Tabula reads and writes a table: the input
// dialect and its overrides, fill values, forced column types, output and
// observability settings.
//
// A configuration file is YAML. ${VAR_NAME} and ${VAR_NAME:-default}
// references are replaced with environment values before parsing; an unset
// variable without a default is an error, as is any unknown key:
//
//	dialect: csv
//	reader:
//	  comment: "\\s*%"
//	  data_end: -1
//	fill_values:
//	  - match: "--"
//	    columns: [flux]
//	types:
//	  id: string
//	output:
//	  format: parquet
//	  codec: zstd
//	logging:
//	  level: ${TABULA_LOG_LEVEL:-warn}
//
// Loading and applying it:
//
//	cfg := config.DefaultConfig()
//	if err := config.Load("tabula.yaml", cfg); err != nil {
//		log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//	opts, err := cfg.Options()
//	reader, err := registry.Create(cfg.Dialect, opts...)
//
// Reader fields left unset keep the dialect's defaults. An empty comment
// pattern disables comment handling and an empty quote_char disables quoting.
package config
