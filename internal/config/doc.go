// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

/*
Package config loads VibeMatch configuration with Koanf v2.

Sources, lowest to highest priority:

 1. Built-in defaults (defaultConfig)
 2. A YAML file: $CONFIG_PATH, ./config.yaml, ./config.yml, /etc/vibematch/config.yaml
 3. Environment variables listed in envMappings (CATALOG_PATH, HTTP_PORT, ...)

Example config.yaml:

	catalog:
	  path: /data/catalog.msgpack
	  require_production: true
	cache:
	  capacity: 15000
	weights:
	  recent_half_life: 720h
	regenerate:
	  enabled: true
	  interval: 24h
	  profiles_dir: /data/profiles

Every section is validated after loading; LoadWithKoanf returns the first
violation.
*/
package config
