// Package config loads and watches the agentlink configuration file.
//
// Top-level types:
//   - Config{Backend, Health, Chat, Dashboard} — full config tree parsed
//     from YAML
//   - BackendConfig — url, proxy_url, proxy_prefix, origin, request_timeout,
//     auth, tls; the proxy fields define the same-origin path that avoids
//     browser CORS checks
//   - AuthConfig — mode (apikey|bearer|none), header, key_env, token_env;
//     Key() and Token() resolve from environment variables
//   - HealthConfig — polling interval for the health monitor
//   - ChatConfig — default conversation_id, temperature, max_tokens, stream
//     applied to sends that leave an option unset
//   - DashboardConfig — port for the local status dashboard server
//
// Load(path) reads the YAML file, applies defaults (proxy prefix "/api",
// 10s request timeout, 30s health interval, port 8080), then validates
// required fields and enums.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. It handles the rename→create pattern
// used by atomic-save editors (vim, VS Code) by re-adding the watch after
// a rename event.
package config
