// Package config loads vizpipe configuration.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later ones winning:
//
//	1. Default() values
//	2. A YAML file: the path given to Load, else $VIZ_CONFIG, else the first
//	   of config.yaml, configs/config.yaml, ../configs/config.yaml
//	3. Environment variables
//
// # Environment Variables
//
// Variables follow the pattern VIZ_<SECTION>_<FIELD>:
//
//	VIZ_SERVER_PORT=8080
//	VIZ_LOGGING_LEVEL=debug
//	VIZ_DATASETS_DATA_DIR=/srv/data
//	VIZ_PIPELINE_OUTER_KEYS=2015,2016,2017
//	VIZ_PIPELINE_QUANTILE_CLASSES=5
//
// # Sections
//
// Server, Logging, RateLimit, Telemetry and WebSocket configure the service.
// Datasets locates the ratings table, the per-region counts table and the
// region GeoJSON. Pipeline names the fields to group, sort and join by and
// sets the inner-key domain, the drill-down size and the number of map
// classes.
package config
