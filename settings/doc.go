// Package settings persists user configuration as a YAML file under
// the platform configuration directory: the OpenAI API key, the default
// search method and the database location.
package settings
