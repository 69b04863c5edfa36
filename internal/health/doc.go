// Package health polls the backend's /health endpoint over the selected
// path and publishes structured observations to subscribers. A check never
// raises an error: every outcome — JSON success, non-JSON body, transport
// failure — is folded into a Status value so the UI always has something
// to render.
package health
