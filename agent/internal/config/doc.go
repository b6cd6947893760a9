// Package config loads and watches the agent configuration file (config.yaml).
//
// Top-level types:
//   - Config{Agent} — full config tree parsed from YAML
//   - AgentConfig — server_endpoint, sample_interval, buffer_size, units,
//     log_level, stations [], server_auth
//   - Station — id, name, altitude_m, source
//   - Source — type (prometheus|json|replay), endpoint, path, loop,
//     pressure_metric, temperature_metric, pressure_unit, sea_level, auth, tls
//   - AuthConfig — mode (apikey|bearer|basic|none), header, key_env,
//     token_env, username, password_env; secrets resolve from the environment
//
// Load(path) reads the YAML file, applies defaults (1m sample interval,
// 1000 buffer, metric units, hPa pressure), then validates required fields
// and enums.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. The parent directory is watched so
// the rename→create pattern used by atomic-save editors keeps reloading.
package config
